package auth

import (
	"context"
	"errors"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func Middleware(tokens *Tokens, log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err == nil {
				var id int64
				id, err = tokens.UserIDFromToken(raw)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
					return
				}
			}

			if !errors.Is(err, ErrMissingToken) {
				log.LogSecurity("INVALID_TOKEN", r.Method+" "+r.URL.Path+": "+err.Error())
			}
			utils.WriteJSON(w, r, http.StatusUnauthorized, utils.ErrorResponse("Authentication required", err.Error()))
		})
	}
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user id, or false outside the middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
