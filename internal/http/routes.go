package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         AuthServiceInterface
	Invoices     *service.InvoiceService
	CookieDomain string
	Logger       *slog.Logger // Logger for HTTP errors (optional)

	// ManagerRoles are the roles allowed to delete invoices.
	ManagerRoles []domainauth.Role
}

// DefaultManagerRoles gate destructive invoice operations when the caller
// does not configure its own set.
var DefaultManagerRoles = []domainauth.Role{"Accounts Manager", "System Manager"}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	invoiceHandlers := &InvoiceHandlers{Svc: services.Invoices}

	registerAuthRoutes(mux, authHandlers, services)
	registerInvoiceRoutes(mux, invoiceHandlers, services)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, services RouterServices) {
	optional := OptionalAuth(AuthMiddlewareOptions{Svc: services.Auth, Logger: services.Logger})

	mux.Handle("POST /auth/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/status", optional(http.HandlerFunc(h.Status)))
}

func registerInvoiceRoutes(mux *http.ServeMux, h *InvoiceHandlers, services RouterServices) {
	authOpts := AuthMiddlewareOptions{Svc: services.Auth, Logger: services.Logger}
	authed := RequireAuth(authOpts)

	managerRoles := services.ManagerRoles
	if len(managerRoles) == 0 {
		managerRoles = DefaultManagerRoles
	}
	managerOnly := RequireRoles(authOpts, managerRoles...)

	mux.Handle("POST /api/invoices", authed(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/invoices", authed(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/invoices/paginated", authed(http.HandlerFunc(h.ListPaginated)))
	mux.Handle("GET /api/invoices/{invoice_number}", authed(http.HandlerFunc(h.GetByNumber)))
	// PUT is accepted alongside PATCH; both apply partial updates.
	mux.Handle("PATCH /api/invoices/{invoice_number}", authed(http.HandlerFunc(h.Update)))
	mux.Handle("PUT /api/invoices/{invoice_number}", authed(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/invoices/{invoice_number}", managerOnly(http.HandlerFunc(h.Delete)))
}
