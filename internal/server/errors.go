package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/powerbi"
)

// errorResponse is the uniform error body. The message never carries
// credential or upstream detail; those are logged server-side.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps service errors onto HTTP statuses. Anything
// unrecognized becomes a generic 500; the concrete error is logged, not
// leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, powerbi.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		log.Printf("server: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
