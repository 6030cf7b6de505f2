package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-booking/internal/analytics"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/catalog"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/notify"
	"ms-booking/internal/pass"
	"ms-booking/internal/users"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const defaultAdminListLimit = 100

// Handler serves the booking HTTP API.
type Handler struct {
	Bookings *booking.Service
	Catalog  *catalog.Service
	Users    *users.Service
	Reports  *analytics.Service
	Passes   *pass.Generator
	Tokens   *auth.Tokens
	// AllowedOrigins feeds the CORS middleware. Empty allows any origin.
	AllowedOrigins []string
	Logger         *logger.Logger
	// Health reports whether backing stores are reachable. Optional.
	Health func(ctx context.Context) error
}

func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidRequest, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", booking.ErrInvalidRequest, name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", booking.ErrInvalidRequest, name)
	}
	return n, nil
}

// currentUser is only called behind auth.Middleware.
func currentUser(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			h.Logger.Error("HEALTH", err.Error())
			utils.WriteJSON(w, r, http.StatusServiceUnavailable, utils.ErrorResponse("Unhealthy", err.Error()))
			return
		}
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("ok", nil))
}

func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Catalog.ListCities(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Cities retrieved", cities))
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Catalog.ListRoutes(r.Context(), models.Mode(r.URL.Query().Get("mode")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Routes retrieved", routes))
}

func (h *Handler) SeatsRemaining(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := booking.Selector{From: q.Get("from"), To: q.Get("to"), Mode: models.Mode(q.Get("mode"))}
	date := q.Get("date")

	left, err := h.Bookings.SeatsRemaining(r.Context(), sel, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Seats remaining", map[string]interface{}{
		"from":            sel.From,
		"to":              sel.To,
		"mode":            sel.Mode,
		"journey_date":    date,
		"seats_remaining": left,
	}))
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req booking.QuoteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	quote, err := h.Bookings.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Price calculated", quote))
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.CreateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.Bookings.CreateBooking(r.Context(), currentUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Booking confirmed! Your booking reference is %s", b.Reference)
	utils.WriteJSON(w, r, http.StatusCreated, utils.SuccessResponse(msg, b))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Bookings.ListBookingsForUser(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

// Dashboard is the signed-in user's profile with bookings split into
// upcoming and past.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Users.GetUser(ctx, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListBookingsForUser(ctx, user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	upcoming, past := booking.SplitUpcoming(bookings, h.Bookings.Clock.Now())
	if upcoming == nil {
		upcoming = []models.Booking{}
	}
	if past == nil {
		past = []models.Booking{}
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Dashboard", map[string]interface{}{
		"user":     user,
		"upcoming": upcoming,
		"past":     past,
	}))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.Bookings.GetBooking(r.Context(), id, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Booking retrieved", b))
}

// TravelPass returns the booking's QR code as a PNG.
func (h *Handler) TravelPass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.Bookings.GetBooking(r.Context(), id, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	png, err := h.Passes.PNG(*b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", b.Reference+".png"))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Bookings.CancelBooking(r.Context(), id, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse(notify.CancellationMessage(c.RefundAmount), c))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.GetUser(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Profile retrieved", u))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p users.Profile
	if err := decode(r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Users.UpdateProfile(r.Context(), currentUser(r), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Profile updated successfully", u))
}
