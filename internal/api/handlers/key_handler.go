package handlers

import (
	"net/http"
	"time"

	"movie-api/internal/middleware"
	"movie-api/internal/models"
	"movie-api/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// KeyHandler manages the caller's API keys.
type KeyHandler struct {
	credentialService services.CredentialService
}

func NewKeyHandler(credentialService services.CredentialService) *KeyHandler {
	return &KeyHandler{credentialService: credentialService}
}

type keyResponse struct {
	ID            string     `json:"id"`
	DisplayPrefix string     `json:"display_prefix"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

type issuedKeyResponse struct {
	keyResponse
	APIKey string `json:"api_key"`
}

func toKeyResponse(c *models.Credential) keyResponse {
	return keyResponse{
		ID:            c.ID.String(),
		DisplayPrefix: c.DisplayPrefix,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		RevokedAt:     c.RevokedAt,
	}
}

func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	credentials, err := h.credentialService.List(r.Context(), identity.AccountID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	keys := make([]keyResponse, 0, len(credentials))
	for i := range credentials {
		keys = append(keys, toKeyResponse(&credentials[i]))
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"keys": keys})
}

// IssueKey creates an additional key. The raw secret is only in this response.
func (h *KeyHandler) IssueKey(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	raw, credential, err := h.credentialService.Issue(r.Context(), identity.AccountID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusCreated, issuedKeyResponse{keyResponse: toKeyResponse(credential), APIKey: raw})
}

func (h *KeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	keyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		badRequest(w, "Invalid key ID")
		return
	}

	if err := h.credentialService.RevokeOwned(r.Context(), identity.AccountID, keyID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
