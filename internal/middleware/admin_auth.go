package middleware

import (
	"context"
	"errors"
	"net/http"

	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/services"
)

// AdminMiddleware admits requests carrying a valid admin JWT.
func AdminMiddleware(tokens *services.AdminTokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractTokenFromHeader(r)
			if tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthorized", nil)
				return
			}

			subject, err := tokens.Verify(tokenString)
			if errors.Is(err, apperrors.ErrInsufficientPermission) {
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthorized", nil)
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
