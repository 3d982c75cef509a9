package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

// Session lifecycle failures. All three map to the same unauthenticated
// outcome at the HTTP boundary; they stay distinct here for diagnostics.
var (
	// ErrNotAuthenticated means the request presented no session id at all.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the session existed but its expiry had passed.
	ErrSessionExpired = errors.New("session expired")
)

// IsAuthFailure reports whether err is one of the session lifecycle
// failures that translate to an unauthenticated response.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ports.ErrSessionNotFound)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider   ports.IdentityProvider
	Sessions   ports.SessionStore
	SessionTTL time.Duration // sliding window length; default 30m when zero
	Logger     *slog.Logger  // optional
	Now        func() time.Time // optional clock override for tests
}

// AuthService orchestrates the session lifecycle: login creates a session,
// per-request authentication validates and slides its expiry, logout
// deletes it. Session state lives exclusively in the injected store.
type AuthService struct {
	provider ports.IdentityProvider
	sessions ports.SessionStore
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		ttl:      ttl,
		logger:   logger,
		now:      now,
	}
}

// LoginResult contains the session created by a successful login. The
// session carries only profile attributes; no credentials or provider
// secrets are ever echoed back.
type LoginResult struct {
	Session domainauth.Session
}

// Login authenticates the credentials against the identity provider,
// snapshots the user profile, and persists a fresh session whose expiry is
// now + TTL.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", ports.ErrInvalidCredentials)
	}

	if err := s.provider.Login(ctx, username, password); err != nil {
		return nil, fmt.Errorf("provider login: %w", err)
	}

	profile, err := s.provider.GetProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	now := s.now()
	session := domainauth.Session{
		ID:        generateSessionID(),
		Username:  profile.Username,
		Email:     profile.Email,
		Roles:     profile.Roles,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if createErr := s.sessions.Create(ctx, session); createErr != nil {
		return nil, fmt.Errorf("create session: %w", createErr)
	}

	s.logger.InfoContext(ctx, "session created",
		"username", session.Username,
		"expires_at", session.ExpiresAt,
	)

	return &LoginResult{Session: session}, nil
}

// Authenticate resolves a presented session id into a live session and
// slides its expiry forward by the TTL. Expired sessions are deleted on
// sight. The refresh is a conditional store-level update, so a logout that
// interleaves with an in-flight authenticate always wins: the refresh
// matches nothing and the caller sees the session as gone.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	now := s.now()
	if session.ExpiredAt(now) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete expired session: %w", deleteErr))
		}
		s.logger.DebugContext(ctx, "expired session removed", "username", session.Username)
		return nil, ErrSessionExpired
	}

	newExpiry := now.Add(s.ttl)
	refreshed, err := s.sessions.Refresh(ctx, sessionID, newExpiry)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if !refreshed {
		// Deleted between Find and Refresh (concurrent logout or sweep).
		return nil, fmt.Errorf("refresh raced deletion: %w", ports.ErrSessionNotFound)
	}

	session.ExpiresAt = newExpiry
	return &session, nil
}

// Logout removes a session. It is idempotent: a missing or already-expired
// id still reports success. The upstream provider logout is best effort and
// never blocks local deletion.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.provider.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "provider logout failed", "error", err)
	}

	return nil
}

// generateSessionID creates a cryptographically secure random session ID.
// UUID v4 carries 122 bits of entropy and is URL- and cookie-safe.
func generateSessionID() string {
	return uuid.New().String()
}
