package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-client request limiter, used on the
// login route to slow down credential stuffing. Windows are tracked
// per remote IP; stale windows are dropped opportunistically on access.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*clientWindow

	// now is swappable for tests
	now func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing limit requests per window per client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

// Allow records a request for the client and reports whether it fits in the
// current window.
func (l *RateLimiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) >= l.window {
		l.clients[client] = &clientWindow{start: now, count: 1}
		l.evictStaleLocked(now)
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// evictStaleLocked drops windows that ended before the previous window
// boundary. Called with the mutex held.
func (l *RateLimiter) evictStaleLocked(now time.Time) {
	for client, w := range l.clients {
		if now.Sub(w.start) >= 2*l.window {
			delete(l.clients, client)
		}
	}
}

// Handler wraps next with the limiter, keyed by client IP. Requests over
// the limit receive 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			client = host
		}
		if !l.Allow(client) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
