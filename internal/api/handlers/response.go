package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError maps service errors onto status codes. Infrastructure
// failures never expose their cause.
func respondWithError(w http.ResponseWriter, err error) {
	var throttled *services.ThrottledError
	var appErr *apperrors.Error

	switch {
	case errors.As(err, &throttled):
		seconds := int(math.Ceil(throttled.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		respondWithJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many attempts, retry later", Code: "THROTTLED"})
	case errors.Is(err, apperrors.ErrInfrastructure), errors.Is(err, apperrors.ErrNotConfigured):
		respondWithJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Service temporarily unavailable, please retry later", Code: "SERVICE_UNAVAILABLE"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		message := "Invalid request"
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials", Code: "UNAUTHENTICATED"})
	case errors.Is(err, apperrors.ErrInsufficientPermission):
		respondWithJSON(w, http.StatusForbidden, errorResponse{Error: "Forbidden", Code: "FORBIDDEN"})
	case errors.Is(err, apperrors.ErrNotFound):
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "Not found", Code: "NOT_FOUND"})
	case errors.Is(err, apperrors.ErrAlreadyExists):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: "Already exists", Code: "ALREADY_EXISTS"})
	case errors.Is(err, apperrors.ErrAlreadyVerified):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: "Account already verified", Code: "ALREADY_VERIFIED"})
	case errors.Is(err, apperrors.ErrNotVerified):
		respondWithJSON(w, http.StatusForbidden, errorResponse{Error: "Account not verified", Code: "NOT_VERIFIED"})
	default:
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: message, Code: "VALIDATION_ERROR"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
