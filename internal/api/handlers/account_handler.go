package handlers

import (
	"net/http"
	"time"

	"movie-api/internal/middleware"
	"movie-api/internal/services"
)

// AccountHandler handles signup, verification and account removal
type AccountHandler struct {
	accountService services.AccountService
}

func NewAccountHandler(accountService services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// verifyResponse carries the raw API key. It is shown exactly once.
type verifyResponse struct {
	AccountID     string    `json:"account_id"`
	Email         string    `json:"email"`
	APIKey        string    `json:"api_key"`
	KeyID         string    `json:"key_id"`
	DisplayPrefix string    `json:"display_prefix"`
	VerifiedAt    time.Time `json:"verified_at"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup godoc
// @Summary Register a new account
// @Description Creates an unverified account and emails a verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body signupRequest true "Signup details"
// @Success 201 {object} signupResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /auth/signup [post]
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	account, err := h.accountService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, signupResponse{
		AccountID: account.ID.String(),
		Email:     account.Email,
		Message:   "Verification code sent",
	})
}

// Verify godoc
// @Summary Verify an account
// @Description Confirms the emailed code and returns the first API key
// @Tags auth
// @Accept json
// @Produce json
// @Param verify body verifyRequest true "Email and code"
// @Success 200 {object} verifyResponse
// @Failure 400 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /auth/verify [post]
func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	verified, err := h.accountService.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		respondWithError(w, err)
		return
	}

	resp := verifyResponse{
		AccountID:     verified.Account.ID.String(),
		Email:         verified.Account.Email,
		APIKey:        verified.RawSecret,
		KeyID:         verified.Credential.ID.String(),
		DisplayPrefix: verified.Credential.DisplayPrefix,
	}
	if verified.Account.VerifiedAt != nil {
		resp.VerifiedAt = *verified.Account.VerifiedAt
	}
	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusOK, resp)
}

// ResendVerification godoc
// @Summary Resend the verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param resend body resendRequest true "Email"
// @Success 202 {object} messageResponse
// @Failure 429 {object} errorResponse
// @Router /auth/resend-verification [post]
func (h *AccountHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if err := h.accountService.ResendVerification(r.Context(), req.Email); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, messageResponse{Message: "If the account is awaiting verification, a new code has been sent"})
}

// ValidateKey godoc
// @Summary Check the presented API key
// @Tags auth
// @Produce json
// @Success 200 {object} validateResponse
// @Failure 401 {object} errorResponse
// @Router /api/v1/user/validate [get]
func (h *AccountHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}
	respondWithJSON(w, http.StatusOK, validateResponse{
		Valid:  true,
		UserID: identity.AccountID.String(),
		Email:  identity.Email,
	})
}

// DeleteAccount removes the caller's account together with its keys and usage.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Code: "UNAUTHENTICATED"})
		return
	}

	if err := h.accountService.Delete(r.Context(), identity.AccountID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
