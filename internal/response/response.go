// Package response writes JSON bodies and application errors to HTTP clients.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error *apperrors.Error `json:"error"`
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":{"code":"storage_error","message":"failed to encode response"}}`, http.StatusInternalServerError)
	}
}

// Error writes err with the status code of its kind. Causes are never exposed.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperrors.StatusCode(err), ErrorBody{Error: apperrors.Public(err)})
}
