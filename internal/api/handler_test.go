package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-booking/internal/analytics"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/catalog"
	catalogdb "ms-booking/internal/catalog/db"
	"ms-booking/internal/clock"
	"ms-booking/internal/database"
	"ms-booking/internal/models"
	"ms-booking/internal/pass"
	"ms-booking/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	tokens   *auth.Tokens
	customer *models.User
	other    *models.User
	admin    *models.User
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	// RequestID is filled by the router's request id middleware.
	RequestID string `json:"request_id"`
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	bunDB, err := database.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	cat := catalog.NewService(&catalogdb.DB{Bun: bunDB}, nil)
	require.NoError(t, cat.Seed(ctx))

	userSvc := users.NewService(&users.DB{Bun: bunDB}, nil)
	mk := func(first, email string, admin bool) *models.User {
		u, err := userSvc.CreateUser(ctx, users.Profile{FirstName: first, LastName: "Test", Email: email}, admin)
		require.NoError(t, err)
		return u
	}

	clk := clock.NewFixed(now)
	tokens := auth.NewTokens("test-secret")
	h := &Handler{
		Bookings: booking.NewService(&bookingdb.DB{Bun: bunDB}, cat, userSvc,
			booking.WithClock(clk),
			booking.WithLockWait(10*time.Second),
		),
		Catalog: cat,
		Users:   userSvc,
		Reports: analytics.NewService(bunDB, clk),
		Passes:  pass.NewGenerator("qr-secret"),
		Tokens:  tokens,
		Health:  func(ctx context.Context) error { return bunDB.PingContext(ctx) },
	}
	return &testServer{
		router:   NewRouter(h),
		tokens:   tokens,
		customer: mk("Jane", "jane@example.com", false),
		other:    mk("John", "john@example.com", false),
		admin:    mk("Ada", "ada@example.com", true),
	}
}

func (s *testServer) do(t *testing.T, method, path string, as *models.User, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := s.tokens.Sign(as.ID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func journey(days int) string {
	return now.AddDate(0, 0, days).Format(models.DateLayout)
}

func bookingBody(days, passengers int) map[string]interface{} {
	return map[string]interface{}{
		"from":         "Newcastle",
		"to":           "Bristol",
		"mode":         "air",
		"journey_date": journey(days),
		"passengers":   passengers,
		"class_type":   "standard",
	}
}

func TestPublicCatalog(t *testing.T) {
	s := setupServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/cities", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cities []models.City
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	assert.Len(t, cities, 12)
	assert.NotEmpty(t, env.RequestID)

	rec, env = s.do(t, http.MethodGet, "/api/routes?mode=train", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var routes []models.Route
	require.NoError(t, json.Unmarshal(env.Data, &routes))
	assert.Len(t, routes, 12)

	rec, _ = s.do(t, http.MethodGet, "/api/routes?mode=ferry", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuote(t *testing.T) {
	s := setupServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/quote", nil, bookingBody(100, 2))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var quote struct {
		TotalPrice      string `json:"total_price"`
		DiscountPercent int    `json:"discount_percent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, "135", quote.TotalPrice)
	assert.Equal(t, 25, quote.DiscountPercent)

	body := bookingBody(100, 2)
	body["to"] = "Atlantis"
	rec, _ = s.do(t, http.MethodPost, "/api/quote", nil, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/quote", nil, map[string]interface{}{"surprise": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/bookings/", nil, bookingBody(100, 2))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(40, 2))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var created models.Booking
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.StatusConfirmed, created.Status)
	assert.Contains(t, env.Message, created.Reference)

	rec, env = s.do(t, http.MethodGet, "/api/routes/seats?from=Newcastle&to=Bristol&mode=air&date="+journey(40), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seats struct {
		SeatsRemaining int `json:"seats_remaining"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &seats))
	assert.Equal(t, 128, seats.SeatsRemaining)

	path := fmt.Sprintf("/api/bookings/%d", created.ID)
	rec, _ = s.do(t, http.MethodGet, path, s.customer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, path, s.other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/bookings/abc", s.customer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/bookings/9999", s.customer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, path+"/pass", s.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec, _ = s.do(t, http.MethodPost, path+"/cancel", s.other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodPost, path+"/cancel", s.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Contains(t, env.Message, "A refund of £")

	rec, _ = s.do(t, http.MethodPost, path+"/cancel", s.customer, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodGet, path+"/pass", s.customer, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBooking_CapacityConflict(t *testing.T) {
	s := setupServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(10, 131))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(-1, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardAndListing(t *testing.T) {
	s := setupServer(t)

	for _, days := range []int{10, 90} {
		rec, env := s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(days, 1))
		require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	}

	rec, env := s.do(t, http.MethodGet, "/api/bookings/", s.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Booking
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, journey(90), list[0].JourneyDate)

	rec, env = s.do(t, http.MethodGet, "/api/bookings/", s.other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, env = s.do(t, http.MethodGet, "/api/dashboard", s.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		Upcoming []models.Booking `json:"upcoming"`
		Past     []models.Booking `json:"past"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Len(t, dash.Upcoming, 2)
	assert.Empty(t, dash.Past)
}

func TestAdminRoutes(t *testing.T) {
	s := setupServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(10, 2))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/bookings", s.customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/admin/bookings?limit=5", s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Booking
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)

	rec, env = s.do(t, http.MethodPost, "/api/admin/cities", s.admin, map[string]string{"name": "York"})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var york models.City
	require.NoError(t, json.Unmarshal(env.Data, &york))

	rec, _ = s.do(t, http.MethodPost, "/api/admin/cities", s.admin, map[string]string{"name": "York"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	route := map[string]interface{}{
		"from_city_id": york.ID, "to_city_id": 1, "mode": "train",
		"departure_time": "09:00", "arrival_time": "12:00",
		"standard_fare": "80", "business_fare": "160", "available_seats": 200,
	}
	rec, env = s.do(t, http.MethodPost, "/api/admin/routes", s.admin, route)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var added models.Route
	require.NoError(t, json.Unmarshal(env.Data, &added))

	rec, _ = s.do(t, http.MethodPost, "/api/admin/routes", s.admin, route)
	assert.Equal(t, http.StatusConflict, rec.Code)

	route["available_seats"] = 220
	rec, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/routes/%d", added.ID), s.admin, route)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/routes/%d", added.ID), s.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// route 1 (Newcastle to Bristol by air) carries a booking for two
	rec, _ = s.do(t, http.MethodDelete, "/api/admin/routes/1", s.admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	booked := map[string]interface{}{
		"from_city_id": 1, "to_city_id": 2, "mode": "air",
		"departure_time": "17:45", "arrival_time": "19:00",
		"standard_fare": "90", "business_fare": "180", "available_seats": 1,
	}
	rec, env = s.do(t, http.MethodPut, "/api/admin/routes/1", s.admin, booked)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Error, "seats already sold")

	booked["available_seats"] = 130
	booked["to_city_id"] = york.ID
	rec, _ = s.do(t, http.MethodPut, "/api/admin/routes/1", s.admin, booked)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", s.customer.ID), s.admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", s.other.ID), s.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/toggle-admin", s.customer.ID), s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var promoted models.User
	require.NoError(t, json.Unmarshal(env.Data, &promoted))
	assert.True(t, promoted.IsAdmin)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/users", s.customer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReports(t *testing.T) {
	s := setupServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/bookings/", s.customer, bookingBody(10, 1))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/admin/reports/dashboard?period=30", s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var dash analytics.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 1, dash.TotalBookings)
	assert.Equal(t, "Newcastle-Bristol", dash.PopularRoute)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/reports/horoscope", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/reports/daily-sales?period=0", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/reports/daily-sales?period=week", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile(t *testing.T) {
	s := setupServer(t)

	profile := map[string]string{"first_name": "Jane", "last_name": "Parks", "email": "jane.parks@example.com", "phone": "+447700900123"}
	rec, env := s.do(t, http.MethodPut, "/api/profile", s.customer, profile)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/profile", s.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Parks", me.LastName)
	assert.Equal(t, "jane.parks@example.com", me.Email)

	profile["email"] = s.other.Email
	rec, _ = s.do(t, http.MethodPut, "/api/profile", s.customer, profile)
	assert.Equal(t, http.StatusConflict, rec.Code)

	profile["email"] = "not-an-email"
	rec, _ = s.do(t, http.MethodPut, "/api/profile", s.customer, profile)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: passengers", booking.ErrInvalidRequest), http.StatusBadRequest},
		{booking.ErrUnauthorized, http.StatusForbidden},
		{catalog.ErrRouteNotFound, http.StatusNotFound},
		{booking.ErrNotFound, http.StatusNotFound},
		{booking.ErrCapacityExceeded, http.StatusConflict},
		{booking.ErrAlreadyCancelled, http.StatusConflict},
		{catalog.ErrRouteInUse, http.StatusConflict},
		{catalog.ErrSeatsBelowSold, http.StatusConflict},
		{catalog.ErrDuplicateRoute, http.StatusConflict},
		{fmt.Errorf("%w: %w", booking.ErrUnavailable, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{booking.ErrReferenceExhausted, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	req.Header.Set("Origin", "https://horizontravels.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
