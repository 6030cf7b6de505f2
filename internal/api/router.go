package api

import (
	"net/http"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}
}

// NewRouter wires every endpoint. Booking and admin routes sit behind the
// bearer token middleware.
func NewRouter(h *Handler) http.Handler {
	if h.Logger == nil {
		h.Logger = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))
	r.Use(cors.Handler(corsOptions(h.AllowedOrigins)))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/cities", h.ListCities)
		r.Get("/routes", h.ListRoutes)
		r.Get("/routes/seats", h.SeatsRemaining)
		r.Post("/quote", h.Quote)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Tokens, h.Logger))

			r.Get("/dashboard", h.Dashboard)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.CreateBooking)
				r.Get("/", h.ListBookings)
				r.Get("/{id}", h.GetBooking)
				r.Get("/{id}/pass", h.TravelPass)
				r.Post("/{id}/cancel", h.CancelBooking)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.requireAdmin)

				r.Get("/bookings", h.AdminListBookings)
				r.Get("/users", h.AdminListUsers)
				r.Post("/users/{id}/toggle-admin", h.ToggleAdmin)
				r.Delete("/users/{id}", h.DeleteUser)
				r.Post("/cities", h.AddCity)
				r.Post("/routes", h.AddRoute)
				r.Put("/routes/{id}", h.UpdateRoute)
				r.Delete("/routes/{id}", h.DeleteRoute)
				r.Get("/reports/{kind}", h.Report)
			})
		})
	})

	return r
}
