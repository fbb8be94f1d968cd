package middleware

import (
	"net/http"

	"movie-api/internal/services"

	"github.com/gorilla/mux"
)

// Metered runs the request gate for routes that count against the daily
// quota. Only allowed requests reach next.
func Metered(gate services.GateService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := gate.Authorize(r.Context(), extractCredential(r), endpointLabel(r))

			if decision.Snapshot != nil {
				setRateLimitHeaders(w, decision.Snapshot)
			}
			if !decision.Allowed() {
				writeDenial(w, decision)
				return
			}

			ctx := WithIdentity(r.Context(), decision.Identity)
			ctx = withSnapshot(ctx, decision.Snapshot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// endpointLabel prefers the route template so path parameters do not
// fragment the usage log.
func endpointLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}
