package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
)

// MockIdentityProvider simulates an identity provider for tests.
// Func fields override individual operations; unset fields fall back to
// deterministic defaults driven by Accept and Profile.
type MockIdentityProvider struct {
	LoginFunc      func(ctx context.Context, username, password string) error
	GetProfileFunc func(ctx context.Context, username string) (domainauth.Profile, error)
	LogoutFunc     func(ctx context.Context) error

	// Accept maps username to the password the default Login accepts.
	Accept map[string]string
	// Profile is returned by the default GetProfile with Username overridden.
	Profile domainauth.Profile

	// Call counters for assertions.
	LoginCalls  int
	LogoutCalls int
}

// NewMockIdentityProvider creates a MockIdentityProvider that accepts a
// single default user.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		Accept: map[string]string{"mock.user@example.com": "mock-password"},
		Profile: domainauth.Profile{
			Username: "mock.user@example.com",
			Email:    "mock.user@example.com",
			Roles:    []domainauth.Role{"Accounts User"},
		},
	}
}

func (m *MockIdentityProvider) Login(ctx context.Context, username, password string) error {
	m.LoginCalls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	if want, ok := m.Accept[username]; ok && want == password {
		return nil
	}
	return fmt.Errorf("mock login rejected %q: %w", username, ports.ErrInvalidCredentials)
}

func (m *MockIdentityProvider) GetProfile(ctx context.Context, username string) (domainauth.Profile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, username)
	}
	profile := m.Profile
	profile.Username = username
	if profile.Email == "" {
		profile.Email = username
	}
	return profile, nil
}

func (m *MockIdentityProvider) Logout(ctx context.Context) error {
	m.LogoutCalls++
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// Safe for concurrent use. Func fields inject failures per operation.
type MemorySessionStore struct {
	CreateFunc              func(ctx context.Context, sess domainauth.Session) error
	FindFunc                func(ctx context.Context, id string) (domainauth.Session, error)
	RefreshFunc             func(ctx context.Context, id string, newExpiry time.Time) (bool, error)
	DeleteFunc              func(ctx context.Context, id string) error
	DeleteExpiredBeforeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Create(ctx context.Context, sess domainauth.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sess)
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[sess.ID]; exists {
		return fmt.Errorf("session %s: %w", sess.ID, ports.ErrDuplicateSession)
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Find(ctx context.Context, id string) (domainauth.Session, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, fmt.Errorf("session %s: %w", id, ports.ErrSessionNotFound)
	}
	return sess, nil
}

func (m *MemorySessionStore) Refresh(ctx context.Context, id string, newExpiry time.Time) (bool, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, id, newExpiry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	sess.ExpiresAt = newExpiry
	m.sessions[id] = sess
	return true, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteExpiredBeforeFunc != nil {
		return m.DeleteExpiredBeforeFunc(ctx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, sess := range m.sessions {
		if sess.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Put stores a session directly, bypassing Create semantics. Test setup only.
func (m *MemorySessionStore) Put(sess domainauth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
}
