package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	mocks "github.com/ledgerline/invoice-api/internal/mocks/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
	"github.com/ledgerline/invoice-api/internal/service"
)

// newAuthFixture wires a real auth service over in-memory doubles.
func newAuthFixture(t *testing.T) (*AuthHandlers, *mocks.MockIdentityProvider, *mocks.MemorySessionStore) {
	t.Helper()
	provider := mocks.NewMockIdentityProvider()
	sessions := mocks.NewMemorySessionStore()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		SessionTTL: 30 * time.Minute,
	})
	return &AuthHandlers{Svc: svc}, provider, sessions
}

func postLoginForm(handlers *AuthHandlers, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("usr", username)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlers.Login(rec, req)
	return rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestAuthHandlers_Login_Success(t *testing.T) {
	handlers, _, sessions := newAuthFixture(t)

	rec := postLoginForm(handlers, "mock.user@example.com", "mock-password")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "mock.user@example.com", body.Username)
	assert.Equal(t, []domainauth.Role{"Accounts User"}, body.Roles)

	cookie := sessionCookieFrom(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Positive(t, cookie.MaxAge)

	_, err := sessions.Find(context.Background(), cookie.Value)
	assert.NoError(t, err)
}

func TestAuthHandlers_Login_WrongPassword(t *testing.T) {
	handlers, _, sessions := newAuthFixture(t)

	rec := postLoginForm(handlers, "mock.user@example.com", "nope")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, sessions.Len())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_credentials", body["error"])
	// The response never leaks which of username/password was wrong.
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestAuthHandlers_Login_UpstreamUnavailable(t *testing.T) {
	handlers, provider, _ := newAuthFixture(t)
	provider.LoginFunc = func(_ context.Context, _, _ string) error {
		return errors.Join(errors.New("connection refused"), ports.ErrUpstreamUnavailable)
	}

	rec := postLoginForm(handlers, "mock.user@example.com", "mock-password")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthHandlers_Login_UpstreamError(t *testing.T) {
	handlers, provider, _ := newAuthFixture(t)
	provider.LoginFunc = func(_ context.Context, _, _ string) error {
		return errors.Join(errors.New("status 500"), ports.ErrUpstream)
	}

	rec := postLoginForm(handlers, "mock.user@example.com", "mock-password")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAuthHandlers_Login_StoreFailureHidesDetail(t *testing.T) {
	handlers, _, sessions := newAuthFixture(t)
	sessions.CreateFunc = func(_ context.Context, _ domainauth.Session) error {
		return errors.New("mongo: socket was unexpectedly closed")
	}

	rec := postLoginForm(handlers, "mock.user@example.com", "mock-password")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login_failed", body["error"])
	// Store failures respond with a fixed message; the cause stays server-side.
	assert.Equal(t, "login failed", body["message"])
	assert.NotContains(t, rec.Body.String(), "socket")
}

func TestAuthHandlers_Logout_DeletesSessionAndClearsCookie(t *testing.T) {
	handlers, _, sessions := newAuthFixture(t)

	loginRec := postLoginForm(handlers, "mock.user@example.com", "mock-password")
	cookie := sessionCookieFrom(t, loginRec)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handlers.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sessions.Len())

	cleared := sessionCookieFrom(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthHandlers_Logout_WithoutCookie(t *testing.T) {
	handlers, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	handlers.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandlers_Logout_UnknownSession(t *testing.T) {
	handlers, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "already-gone"})
	rec := httptest.NewRecorder()
	handlers.Logout(rec, req)

	// Logout is idempotent: unknown sessions still succeed.
	assert.Equal(t, http.StatusOK, rec.Code)
}

// getStatus routes the request through OptionalAuth the way the router does.
func getStatus(handlers *AuthHandlers, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	optional := OptionalAuth(AuthMiddlewareOptions{Svc: handlers.Svc})
	optional(http.HandlerFunc(handlers.Status)).ServeHTTP(rec, req)
	return rec
}

func TestAuthHandlers_Status_Authenticated(t *testing.T) {
	handlers, _, _ := newAuthFixture(t)

	loginRec := postLoginForm(handlers, "mock.user@example.com", "mock-password")
	cookie := sessionCookieFrom(t, loginRec)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(cookie)
	rec := getStatus(handlers, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
}

func TestAuthHandlers_Status_NoCookie(t *testing.T) {
	handlers, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	rec := getStatus(handlers, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
}

func TestAuthHandlers_Status_ExpiredSessionClearsCookie(t *testing.T) {
	handlers, _, sessions := newAuthFixture(t)
	sessions.Put(domainauth.Session{
		ID:        "stale",
		Username:  "mock.user@example.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})
	rec := getStatus(handlers, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])

	cleared := sessionCookieFrom(t, rec)
	assert.Empty(t, cleared.Value)

	// The expired session was purged on sight.
	assert.Equal(t, 0, sessions.Len())
}
