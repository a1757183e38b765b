package middleware

import "net/http"

const defaultCSP = "default-src 'self'; img-src 'self' data:; connect-src 'self'"

// SecurityHeaders sets the standard browser hardening headers on every
// response. X-Frame-Options stays DENY because the API itself is never
// framed; only the Power BI report is, and that lives on the frontend.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=()")
		h.Set("Content-Security-Policy", defaultCSP)
		next.ServeHTTP(w, r)
	})
}
