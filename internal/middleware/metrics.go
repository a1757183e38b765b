package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/classpulse/embedapi/internal/telemetry"
)

// Metrics records request count, latency, and error count per route. The
// route label is the chi pattern ("/auth/login"), resolved after routing so
// unmatched paths collapse into a single bucket.
func Metrics(m *telemetry.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Context(), r.Method, route,
				strconv.Itoa(ww.Status()), float64(time.Since(start).Milliseconds()))
		})
	}
}
