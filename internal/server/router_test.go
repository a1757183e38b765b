package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/embedapi/internal/middleware"
	"github.com/classpulse/embedapi/internal/powerbi"
)

// TestRouter_SessionLifecycle walks the whole flow a browser goes through:
// login, cookie-authenticated check, embed token, logout, rejected check.
func TestRouter_SessionLifecycle(t *testing.T) {
	f := newTestFixture(t)
	broker := &stubBroker{info: &powerbi.EmbedInfo{
		AccessToken: "embed-token",
		EmbedURL:    "https://embed.example.com/r-1",
		Expiry:      time.Now().Add(time.Hour),
		DatasetID:   "ds-1",
	}}
	srv := httptest.NewServer(f.router(broker))
	defer srv.Close()

	jar := make([]*http.Cookie, 0, 1)
	do := func(method, path, body string) *http.Response {
		t.Helper()
		var reader *strings.Reader
		if body != "" {
			reader = strings.NewReader(body)
		} else {
			reader = strings.NewReader("")
		}
		req, err := http.NewRequest(method, srv.URL+path, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		for _, c := range jar {
			req.AddCookie(c)
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		// Mimic the browser: replace stored cookies with what came back.
		if cookies := resp.Cookies(); len(cookies) > 0 {
			jar = jar[:0]
			for _, c := range cookies {
				if c.MaxAge >= 0 && c.Value != "" {
					jar = append(jar, &http.Cookie{Name: c.Name, Value: c.Value})
				}
			}
		}
		return resp
	}

	// Unauthenticated check fails before anything happens.
	resp := do(http.MethodGet, "/auth/check", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login stores the cookie.
	resp = do(http.MethodPost, "/auth/login", `{"email":"mentor@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, jar, 1, "login must leave exactly the credential cookie")

	// The cookie now authenticates follow-up requests.
	resp = do(http.MethodGet, "/auth/check", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodGet, "/embed/getEmbedToken", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "teacher", broker.lastIdentity.Role)

	// Logout revokes the token and clears the cookie.
	resp = do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, jar, "logout must delete the credential cookie")

	// The session is gone on both transports.
	resp = do(http.MethodGet, "/auth/check", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_LoginRateLimit(t *testing.T) {
	f := newTestFixture(t)
	router := NewRouter(RouterOptions{
		Issuer:       f.issuer,
		Validator:    f.validator,
		Registry:     f.registry,
		Cfg:          f.cfg,
		LoginLimiter: middleware.NewRateLimiter(2, time.Minute),
	})

	attempt := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"mentor@example.com","password":"nope"}`))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, attempt())
	assert.Equal(t, http.StatusUnauthorized, attempt())
	assert.Equal(t, http.StatusTooManyRequests, attempt(), "third attempt in the window is throttled")
}

func TestRouter_Health(t *testing.T) {
	f := newTestFixture(t)
	router := f.router(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health is public; no cookie or header required, and the hardening
	// headers are still applied.
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newTestFixture(t)
	router := f.router(nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
