package api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/booking"
	"ms-booking/internal/catalog"
	"ms-booking/internal/pass"
	"ms-booking/internal/users"
	"ms-booking/internal/utils"
)

var statusByError = []struct {
	err    error
	status int
}{
	{booking.ErrInvalidRequest, http.StatusBadRequest},
	{catalog.ErrInvalidRoute, http.StatusBadRequest},
	{users.ErrInvalidUser, http.StatusBadRequest},
	{analytics.ErrInvalidPeriod, http.StatusBadRequest},

	{booking.ErrUnauthorized, http.StatusForbidden},
	{users.ErrForbidden, http.StatusForbidden},

	{booking.ErrRouteNotFound, http.StatusNotFound},
	{booking.ErrNotFound, http.StatusNotFound},
	{catalog.ErrCityNotFound, http.StatusNotFound},
	{users.ErrUserNotFound, http.StatusNotFound},
	{analytics.ErrUnknownReport, http.StatusNotFound},

	{booking.ErrCapacityExceeded, http.StatusConflict},
	{booking.ErrAlreadyCancelled, http.StatusConflict},
	{catalog.ErrRouteInUse, http.StatusConflict},
	{catalog.ErrSeatsBelowSold, http.StatusConflict},
	{catalog.ErrDuplicateRoute, http.StatusConflict},
	{catalog.ErrDuplicateCity, http.StatusConflict},
	{users.ErrDuplicateEmail, http.StatusConflict},
	{users.ErrUserHasBookings, http.StatusConflict},
	{pass.ErrNotIssuable, http.StatusConflict},

	{booking.ErrUnavailable, http.StatusServiceUnavailable},
	{booking.ErrReferenceExhausted, http.StatusInternalServerError},
}

// StatusOf maps a service error onto an HTTP status code.
func StatusOf(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	msg := http.StatusText(status)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		detail = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	utils.WriteJSON(w, r, status, utils.ErrorResponse(msg, detail))
}
