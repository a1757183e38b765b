package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/telemetry"
)

// LoginRequest carries the credentials for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse reports the authenticated identity. The token itself
// travels in the credential cookie, not in the body.
type LoginResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LogoutResponse acknowledges a completed logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// CheckResponse is the body of GET /auth/check for a live session.
type CheckResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email"`
	Role          string `json:"role"`
}

// credentialCookie builds the session cookie with the attributes the
// cross-site frontend requires. maxAge < 0 deletes the cookie; the
// attributes must otherwise match the ones used at login or browsers
// treat it as a different cookie and keep the original.
func credentialCookie(cfg *config.Config, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}

// HandleLogin authenticates email/password credentials and establishes the
// session cookie. All credential failures collapse into the same 401.
// metrics may be nil.
func HandleLogin(issuer *auth.Issuer, cfg *config.Config, metrics *telemetry.AuthMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing email or password")
			return
		}

		token, claims, err := issuer.Issue(r.Context(), req.Email, req.Password)
		if metrics != nil {
			metrics.RecordAuth(r.Context(), "password", err == nil)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// Cookie lifetime tracks the token lifetime so the browser stops
		// sending the credential once it can no longer validate.
		http.SetCookie(w, credentialCookie(cfg, token, int(cfg.JWT.TTL.Seconds())))
		writeJSON(w, http.StatusOK, LoginResponse{Email: claims.Email, Role: claims.Role})
	}
}

// HandleLogout revokes the presented token and deletes the session cookie.
// Revocation is keyed on the token's jti, so only this session ends; other
// devices holding their own tokens stay valid.
func HandleLogout(registry auth.Registry, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		if err := registry.Revoke(r.Context(), claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
			log.Printf("server: failed to revoke jti %s: %v", claims.ID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, credentialCookie(cfg, "", -1))
		writeJSON(w, http.StatusOK, LogoutResponse{Message: "session closed"})
	}
}

// clearCookieOnUnauthorized wraps the logout route so a request whose
// credential no longer validates still gets its stale session cookie
// deleted. Without it a browser holding an expired token could never shed
// the cookie through logout.
func clearCookieOnUnauthorized(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&cookieClearingWriter{ResponseWriter: w, cfg: cfg}, r)
		})
	}
}

type cookieClearingWriter struct {
	http.ResponseWriter
	cfg         *config.Config
	wroteHeader bool
}

func (w *cookieClearingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if status == http.StatusUnauthorized {
			http.SetCookie(w.ResponseWriter, credentialCookie(w.cfg, "", -1))
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

// HandleCheck reports the identity behind the presented credential. The
// auth middleware has already validated it; this just echoes the claims.
func HandleCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		writeJSON(w, http.StatusOK, CheckResponse{
			Authenticated: true,
			Email:         identity.Email,
			Role:          identity.Role,
		})
	}
}
