package ports

// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
)

// Sentinel errors shared between adapters and services. Adapters wrap these
// so callers can classify failures with errors.Is without knowing the
// concrete provider or store.
var (
	// ErrInvalidCredentials means the identity provider rejected the login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUpstreamUnavailable means the identity provider could not be reached.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
	// ErrUpstream covers any other identity provider failure.
	ErrUpstream = errors.New("identity provider error")

	// ErrSessionNotFound means no live session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDuplicateSession means a session id collided on create.
	ErrDuplicateSession = errors.New("duplicate session id")
)

// IdentityProvider wraps the remote system of record for credentials and
// role assignments. Its authentication mechanics are opaque to the core.
type IdentityProvider interface {
	// Login verifies the credentials upstream. A nil return means the
	// provider accepted them; failures wrap ErrInvalidCredentials,
	// ErrUpstreamUnavailable or ErrUpstream.
	Login(ctx context.Context, username, password string) error

	// GetProfile fetches the user profile after a successful login.
	// Failures wrap ErrUpstream.
	GetProfile(ctx context.Context, username string) (domainauth.Profile, error)

	// Logout ends the upstream session. Best effort: callers log failures
	// and never let them block local session deletion.
	Logout(ctx context.Context) error
}

// SessionStore persists and retrieves server-side sessions. It is the only
// shared mutable resource in the session core; all session mutation goes
// through these operations.
type SessionStore interface {
	// Create inserts a new session. Wraps ErrDuplicateSession when the id
	// already exists.
	Create(ctx context.Context, sess domainauth.Session) error

	// Find returns the session for id without side effects. Wraps
	// ErrSessionNotFound when absent.
	Find(ctx context.Context, id string) (domainauth.Session, error)

	// Refresh atomically advances the session expiry. Returns false when
	// the session no longer exists, so a concurrent delete is never undone.
	Refresh(ctx context.Context, id string, newExpiry time.Time) (bool, error)

	// Delete removes the session. Idempotent; absent ids are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpiredBefore removes every session whose expiry is strictly
	// before cutoff and returns the number removed. Used by the sweeper.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
