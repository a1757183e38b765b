package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findCookie pulls a named cookie out of recorded response headers.
func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleLogin(t *testing.T) {
	f := newTestFixture(t)
	router := f.router(nil)

	postLogin := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		rec := postLogin(`{"email":"mentor@example.com","password":"pw"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"email":"mentor@example.com","role":"teacher"}`, rec.Body.String())

		cookie := findCookie(t, rec, "token")
		require.NotNil(t, cookie, "login must set the credential cookie")
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, 3600, cookie.MaxAge, "cookie lifetime tracks the token TTL")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postLogin(`{"email":"mentor@example.com","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
		assert.Nil(t, findCookie(t, rec, "token"))
	})

	t.Run("unknown account gets the same 401", func(t *testing.T) {
		rec := postLogin(`{"email":"nobody@example.com","password":"pw"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postLogin(`{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postLogin(`{"email":"mentor@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	f := newTestFixture(t)
	router := f.router(nil)

	token, claims, err := f.login("student@example.com")
	require.NoError(t, err)

	t.Run("logout revokes the token and deletes the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"session closed"}`, rec.Body.String())

		cookie := findCookie(t, rec, "token")
		require.NotNil(t, cookie, "logout must overwrite the credential cookie")
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
		// Deletion only works if the attributes match the login cookie.
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)

		revoked, err := f.registry.IsRevoked(req.Context(), claims.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("revoked token no longer authenticates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout with a revoked token still clears the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		cookie := findCookie(t, rec, "token")
		require.NotNil(t, cookie, "the stale cookie must still be overwritten")
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
		assert.Equal(t, "/", cookie.Path)
	})

	t.Run("other sessions for the same user stay valid", func(t *testing.T) {
		other, _, err := f.login("student@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: other})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout without a credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, findCookie(t, rec, "token"), "logout overwrites the cookie even without a credential")
	})
}

func TestHandleCheck(t *testing.T) {
	f := newTestFixture(t)
	router := f.router(nil)

	t.Run("via cookie", func(t *testing.T) {
		token, _, err := f.login("mentor@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"authenticated":true,"email":"mentor@example.com","role":"teacher"}`, rec.Body.String())
	})

	t.Run("via bearer header", func(t *testing.T) {
		token, _, err := f.login("student@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"authenticated":true,"email":"student@example.com","role":"student"}`, rec.Body.String())
	})

	t.Run("no credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
