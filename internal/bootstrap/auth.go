package bootstrap

import (
	"log/slog"

	"github.com/ledgerline/invoice-api/config"
	"github.com/ledgerline/invoice-api/internal/adapters/devauth"
	"github.com/ledgerline/invoice-api/internal/adapters/frappe"
	mongoadapter "github.com/ledgerline/invoice-api/internal/adapters/mongo"
	"github.com/ledgerline/invoice-api/internal/ports"
	"github.com/ledgerline/invoice-api/internal/service"
)

// AuthDeps contains dependencies for building the auth service.
type AuthDeps struct {
	Auth    config.AuthConfig
	Session config.SessionConfig
	Mongo   *MongoHandle
	Logger  *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth configuration is invalid.
func BuildAuthService(deps AuthDeps) *service.AuthService {
	if deps.Mongo == nil || deps.Mongo.Database == nil {
		if deps.Logger != nil {
			deps.Logger.Warn("auth service disabled: database not configured", "mode", deps.Auth.Mode)
		}
		return nil
	}

	// Session store shared by both modes
	sessionStore := mongoadapter.NewSessionStore(deps.Mongo.Database)

	provider := buildIdentityProvider(deps)
	if provider == nil {
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessionStore,
		SessionTTL: deps.Session.TTL,
		Logger:     deps.Logger,
	})
}

func buildIdentityProvider(deps AuthDeps) ports.IdentityProvider {
	switch deps.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Username: deps.Auth.DevAuth.Username,
			Password: deps.Auth.DevAuth.Password,
			Email:    deps.Auth.DevAuth.Email,
			Roles:    deps.Auth.DevAuth.Roles,
		})
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
			}
			return nil
		}
		return prov

	case config.AuthModeFrappe:
		prov, err := frappe.NewClient(frappe.Config{
			BaseURL: deps.Auth.Frappe.BaseURL,
			Timeout: deps.Auth.Frappe.Timeout,
		})
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("failed to create identity provider client, auth disabled", "error", err)
			}
			return nil
		}
		return prov

	default:
		return nil
	}
}
