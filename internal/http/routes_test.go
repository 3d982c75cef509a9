package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/domain/model"
	mocks "github.com/ledgerline/invoice-api/internal/mocks/auth"
	"github.com/ledgerline/invoice-api/internal/service"
)

func newRouterFixture(t *testing.T, roles ...domainauth.Role) (http.Handler, *memoryInvoiceRepo) {
	t.Helper()

	provider := mocks.NewMockIdentityProvider()
	provider.Profile.Roles = roles
	sessions := mocks.NewMemorySessionStore()
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		SessionTTL: 30 * time.Minute,
		Logger:     testLogger(),
	})

	repo := newMemoryInvoiceRepo()
	invoiceSvc, err := service.NewInvoiceService(service.InvoiceServiceOptions{
		Repo:   repo,
		Logger: testLogger(),
	})
	require.NoError(t, err)

	router := NewRouter(RouterServices{
		Auth:     authSvc,
		Invoices: invoiceSvc,
		Logger:   testLogger(),
	})
	return router, repo
}

func loginThroughRouter(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()

	form := url.Values{}
	form.Set("usr", "mock.user@example.com")
	form.Set("password", "mock-password")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t, "Accounts User")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_InvoicesRequireAuthentication(t *testing.T) {
	router, _ := newRouterFixture(t, "Accounts User")

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LoginThenCreateAndFetchInvoice(t *testing.T) {
	router, _ := newRouterFixture(t, "Accounts User")
	cookie := loginThroughRouter(t, router)

	createReq := httptest.NewRequest(http.MethodPost, "/api/invoices",
		strings.NewReader(`{"name":"Acme Corp","amount":100}`))
	createReq.AddCookie(cookie)
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	listReq.AddCookie(cookie)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)

	assert.Equal(t, http.StatusOK, listRec.Code)
	assert.Contains(t, listRec.Body.String(), `"Acme Corp"`)
}

func TestRouter_DeleteRequiresManagerRole(t *testing.T) {
	router, repo := newRouterFixture(t, "Accounts User")
	repo.byNumber["INV-01-01-2026-0001"] = model.Invoice{InvoiceNumber: "INV-01-01-2026-0001"}
	cookie := loginThroughRouter(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/invoices/INV-01-01-2026-0001", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, repo.byNumber, 1)
}

func TestRouter_DeleteAllowedForManager(t *testing.T) {
	router, repo := newRouterFixture(t, "Accounts User", "Accounts Manager")
	repo.byNumber["INV-01-01-2026-0001"] = model.Invoice{InvoiceNumber: "INV-01-01-2026-0001"}
	cookie := loginThroughRouter(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/invoices/INV-01-01-2026-0001", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.byNumber)
}

func TestRouter_LogoutInvalidatesSession(t *testing.T) {
	router, _ := newRouterFixture(t, "Accounts User")
	cookie := loginThroughRouter(t, router)

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logoutReq.AddCookie(cookie)
	logoutRec := httptest.NewRecorder()
	router.ServeHTTP(logoutRec, logoutReq)
	require.Equal(t, http.StatusOK, logoutRec.Code)

	// The old cookie no longer authenticates anything.
	listReq := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	listReq.AddCookie(cookie)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)

	assert.Equal(t, http.StatusUnauthorized, listRec.Code)
}
