package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeFrappe delegates credential checks to a remote Frappe-style
	// user directory over HTTP.
	AuthModeFrappe AuthMode = "frappe"
	// AuthModeMock uses a static local identity (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "frappe", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: frappe, mock)", v)
	}
}

// FrappeConfig contains connection settings for the identity provider.
type FrappeConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://127.0.0.1:8001"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"15s"`
}

// DevAuthConfig controls the mock identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	Username string   `env:"USERNAME" envDefault:"dev-user"`
	Password string   `env:"PASSWORD" envDefault:"dev-password"`
	Email    string   `env:"EMAIL"    envDefault:"dev@example.com"`
	Roles    []string `env:"ROLES"    envDefault:"Accounts User"  envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"frappe"`

	// Frappe configuration (used when Mode=frappe).
	Frappe FrappeConfig `envPrefix:"FRAPPE_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// SessionConfig controls server-side session lifetime semantics.
type SessionConfig struct {
	// TTL is the sliding session lifetime. Every authenticated request
	// extends the session expiry by this duration.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 30 * time.Minute
	}
}

// SweeperConfig controls the background expired-session sweeper.
type SweeperConfig struct {
	// Interval is the time between sweeps of expired sessions.
	Interval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval <= 0 {
		s.Interval = time.Hour
	}
}
