package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	WriteJSON(rec, req, http.StatusConflict, ErrorResponse("Booking failed", "not enough seats"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Booking failed", body.Message)
	assert.Equal(t, "not enough seats", body.Error)
	assert.False(t, body.Timestamp.IsZero())
	assert.Empty(t, body.RequestID)
}

func TestWriteJSON_CarriesRequestID(t *testing.T) {
	var got APIResponse
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r, http.StatusOK, SuccessResponse("ok", nil))
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-42")
	handler.ServeHTTP(rec, req)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "trace-42", got.RequestID)
}

func TestSuccessResponse_OmitsError(t *testing.T) {
	raw, err := json.Marshal(SuccessResponse("ok", map[string]int{"seats": 3}))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)
	assert.Contains(t, string(raw), `"seats":3`)
}
