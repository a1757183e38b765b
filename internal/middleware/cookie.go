package middleware

import "net/http"

// CookieToBearer returns a request transform that bridges cookie transport
// to the bearer-token pipeline: when a request carries no Authorization
// header but does carry the credential cookie, the cookie value is promoted
// into the Authorization header before the request moves on.
//
// The transform never reads or validates the token; a request that already
// carries an Authorization header passes through untouched, as does a
// request with neither. Downstream validation treats the absence of a
// credential as unauthenticated.
func CookieToBearer(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
					r.Header.Set("Authorization", "Bearer "+cookie.Value)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
