package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	apperrors "github.com/ledgerline/invoice-api/internal/errors"
	"github.com/ledgerline/invoice-api/internal/ports"
	"github.com/ledgerline/invoice-api/internal/service"
)

const sessionCookieName = "session_id"

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Authenticate(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginResponse is the JSON body returned by a successful login.
type loginResponse struct {
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Roles    []domainauth.Role `json:"roles"`
}

// Login handles the credential login endpoint.
// POST /auth/login with form fields usr and password.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("usr"))
	password := r.PostFormValue("password")

	result, err := h.Svc.Login(r.Context(), username, password)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	h.setSessionCookie(w, r, result.Session)
	WriteJSON(w, http.StatusOK, loginResponse{
		Username: result.Session.Username,
		Email:    result.Session.Email,
		Roles:    result.Session.Roles,
	})
}

// writeLoginError maps login failures to HTTP responses. The provider and
// service layers report failures as wrapped ports sentinels, so
// classification goes through errors.Is. Responses carry only the sentinel
// message; wrapped detail stays in the logs.
func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidCredentials):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: string(apperrors.ErrCodeInvalidCredentials),
			Err:     ports.ErrInvalidCredentials,
		})
	case errors.Is(err, ports.ErrUpstreamUnavailable):
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: string(apperrors.ErrCodeUpstreamUnavailable),
			Err:     ports.ErrUpstreamUnavailable,
		})
	case errors.Is(err, ports.ErrUpstream):
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: string(apperrors.ErrCodeUpstream),
			Err:     ports.ErrUpstream,
		})
	default:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("login failed"),
		})
	}
}

// Logout handles the logout endpoint. Always succeeds from the client's
// point of view: absent or already-deleted sessions still get 200 and a
// cleared cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(sessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, sessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Status returns the current authentication status. The route runs under
// OptionalAuth, which resolves the cookie and slides expiry; this handler
// only reads the outcome from the request context.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		// A presented cookie that did not resolve is stale; clear it.
		if _, err := r.Cookie(sessionCookieName); err == nil {
			h.clearCookie(w, r, sessionCookieName)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	// OptionalAuth slid the expiry forward; refresh the cookie to match.
	h.setSessionCookie(w, r, *session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"username": session.Username,
			"email":    session.Email,
			"roles":    session.Roles,
		},
		"expires_at": session.ExpiresAt,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
