package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/telemetry"
)

// RequireAuth returns a middleware that authenticates requests with the
// given validator and stores the resulting claims on the request context.
// Any validation failure yields a generic 401; the specific reason (bad
// signature, expiry, revocation) is logged internally and never surfaced
// to the client. metrics may be nil.
//
// The cookie bridge must run before this middleware so cookie-borne
// credentials are already in bearer position by the time it looks.
func RequireAuth(validator *auth.Validator, metrics *telemetry.AuthMetrics) func(http.Handler) http.Handler {
	recordAuth := func(r *http.Request, success bool) {
		if metrics != nil {
			metrics.RecordAuth(r.Context(), "token", success)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				recordAuth(r, false)
				unauthenticated(w)
				return
			}

			claims, err := validator.Validate(r.Context(), token)
			if err != nil {
				recordAuth(r, false)
				switch {
				case errors.Is(err, auth.ErrTokenExpired),
					errors.Is(err, auth.ErrTokenRevoked),
					errors.Is(err, auth.ErrTokenInvalid):
					log.Printf("auth failed for %s %s: %v", r.Method, r.URL.Path, err)
					unauthenticated(w)
				default:
					// Registry lookup failure, not a bad token.
					log.Printf("auth error for %s %s: %v", r.Method, r.URL.Path, err)
					http.Error(w, `{"error":"authentication error"}`, http.StatusInternalServerError)
				}
				return
			}

			recordAuth(r, true)
			ctx := auth.SetClaimsContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthenticated"}`))
}
