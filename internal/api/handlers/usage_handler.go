package handlers

import (
	"net/http"

	"movie-api/internal/middleware"
	"movie-api/internal/services"
)

type UsageHandler struct {
	quotaService services.QuotaService
}

func NewUsageHandler(quotaService services.QuotaService) *UsageHandler {
	return &UsageHandler{
		quotaService: quotaService,
	}
}

// GetQuota returns today's standing without consuming a request.
func (h *UsageHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	snapshot, err := h.quotaService.Snapshot(r.Context(), identity.AccountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

func (h *UsageHandler) GetUsageHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	history, err := h.quotaService.History(r.Context(), identity.AccountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}
