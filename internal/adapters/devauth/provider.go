package devauth

// Package devauth provides a simple, config-driven IdentityProvider for
// local development. It accepts exactly one configured credential pair and
// never talks to the network.

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Username string
	Password string
	Email    string
	Roles    []string
}

// Provider implements ports.IdentityProvider for local development.
type Provider struct {
	username string
	password string
	profile  domainauth.Profile
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Username == "" {
		return nil, errors.New("dev auth: Username is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}

	roles := make([]domainauth.Role, 0, len(cfg.Roles))
	for _, r := range cfg.Roles {
		if r != "" {
			roles = append(roles, domainauth.Role(r))
		}
	}

	return &Provider{
		username: cfg.Username,
		password: cfg.Password,
		profile: domainauth.Profile{
			Username: cfg.Username,
			Email:    cfg.Email,
			Roles:    roles,
		},
	}, nil
}

// Login accepts only the configured credential pair.
func (p *Provider) Login(_ context.Context, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(p.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(p.password)) == 1
	if !userOK || !passOK {
		return fmt.Errorf("%w: dev credentials rejected", ports.ErrInvalidCredentials)
	}
	return nil
}

// GetProfile returns the configured identity for the configured user.
func (p *Provider) GetProfile(_ context.Context, username string) (domainauth.Profile, error) {
	if username != p.username {
		return domainauth.Profile{}, fmt.Errorf("%w: unknown dev user %q", ports.ErrUpstream, username)
	}
	return p.profile, nil
}

// Logout is a no-op for the dev provider.
func (p *Provider) Logout(_ context.Context) error { return nil }
