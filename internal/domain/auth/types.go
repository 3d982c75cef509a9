package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an authorization role as assigned by the identity
// provider. Roles are free-form provider strings (e.g. "Accounts Manager");
// they are snapshotted into the session at login time.
type Role string

// Profile is the principal record returned by the identity provider after a
// successful login. Adapters map provider-specific payloads into this shape.
type Profile struct {
	Username string
	Email    string
	Roles    []Role
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque random identifier and doubles as the cookie value.
// ExpiresAt slides forward on every authenticated request; CreatedAt never
// changes after creation.
type Session struct {
	ID        string    `bson:"_id"        json:"id"`
	Username  string    `bson:"username"   json:"username"`
	Email     string    `bson:"email"      json:"email"`
	Roles     []Role    `bson:"roles"      json:"roles"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// ExpiredAt reports whether the session is expired relative to now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HasRole reports whether the session holds the given role.
func (s Session) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
