package middleware

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string      `json:"error"`
	Code  string      `json:"code"`
	Usage interface{} `json:"usage,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, code, message string, usage interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code, Usage: usage})
}
