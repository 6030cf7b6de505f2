package api

import (
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/catalog"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// requireAdmin lets the request through only for administrators.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.Users.Resolve(r.Context(), currentUser(r))
		if err == nil && !id.IsAdmin {
			h.Logger.LogSecurity("ADMIN", r.Method+" "+r.URL.Path+" denied for non-administrator")
			utils.WriteJSON(w, r, http.StatusForbidden, utils.ErrorResponse("Forbidden", "administrator access required"))
			return
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) AdminListBookings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultAdminListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListAllBookings(r.Context(), currentUser(r), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Users retrieved", list))
}

func (h *Handler) AddCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	city, err := h.Catalog.AddCity(r.Context(), body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusCreated, utils.SuccessResponse("City added successfully", city))
}

func (h *Handler) AddRoute(w http.ResponseWriter, r *http.Request) {
	var in catalog.RouteInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	route, err := h.Catalog.AddRoute(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusCreated, utils.SuccessResponse("Journey added successfully", route))
}

func (h *Handler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in catalog.RouteInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	route, err := h.Catalog.UpdateRoute(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Journey updated successfully", route))
}

func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteRoute(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Journey deleted successfully", nil))
}

func (h *Handler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.Users.ToggleAdmin(r.Context(), currentUser(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Admin status updated", u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Users.DeleteUser(r.Context(), currentUser(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("User deleted successfully", nil))
}

// Report serves one of the analytics reports over ?period= days.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period", analytics.DefaultPeriodDays)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	kind := chi.URLParam(r, "kind")
	report, err := h.Reports.Generate(r.Context(), kind, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, r, http.StatusOK, utils.SuccessResponse("Report "+kind, report))
}
