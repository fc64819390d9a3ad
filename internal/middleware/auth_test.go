package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "capsule-test-secret"

// ownerOnly — хендлер в духе капсульного API: аноним получает 401,
// аутентифицированный — свой id.
func ownerOnly() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(strconv.FormatInt(uid, 10)))
	})
}

func requestWithCookie(t *testing.T, userID int64, secret string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, SetLoginCookie(rec, userID, secret))
	req := httptest.NewRequest(http.MethodGet, "/api/capsules", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestWithAuth_ValidCookieCarriesUserID(t *testing.T) {
	h := WithAuth(testSecret)(ownerOnly())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithCookie(t, 42, testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())
}

func TestWithAuth_AnonymousPassesThrough(t *testing.T) {
	// без cookie запрос не отклоняется мидлварью — решает хендлер
	h := WithAuth(testSecret)(ownerOnly())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capsules", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuth_RejectsForgedCookies(t *testing.T) {
	h := WithAuth(testSecret)(ownerOnly())

	t.Run("wrong secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestWithCookie(t, 42, "another-secret"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/capsules", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "not-a-jwt"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSetLoginCookie_Flags(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SetLoginCookie(rec, 7, testSecret))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "auth_token", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.NotEmpty(t, c.Value)
}
