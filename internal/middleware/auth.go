package middleware

import (
	"net/http"
	"strings"

	"movie-api/internal/services"

	"github.com/gorilla/mux"
)

// extractTokenFromHeader returns the token of an "Authorization: Bearer"
// header, or "".
func extractTokenFromHeader(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// extractCredential accepts either a bearer token or an X-API-Key header.
func extractCredential(r *http.Request) string {
	if token := extractTokenFromHeader(r); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// Unmetered authenticates the caller without charging the quota. Used for
// key management and usage views.
func Unmetered(gate services.GateService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := gate.AuthorizeUnmetered(r.Context(), extractCredential(r))
			if !decision.Allowed() {
				writeDenial(w, decision)
				return
			}

			ctx := WithIdentity(r.Context(), decision.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeDenial(w http.ResponseWriter, decision services.Decision) {
	switch decision.Outcome {
	case services.OutcomeUnauthenticated:
		w.Header().Set("WWW-Authenticate", `Bearer realm="movie-api"`)
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or missing API key", nil)
	case services.OutcomeQuotaExceeded:
		writeJSONError(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED",
			"Daily request quota exceeded. Upgrade your plan or retry after the reset.", decision.Snapshot)
	default:
		w.Header().Set("Retry-After", "5")
		writeJSONError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, please retry later", nil)
	}
}
