package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddlewareOptions groups dependencies for the auth middlewares.
type AuthMiddlewareOptions struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (o AuthMiddlewareOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// RequireAuth returns a middleware that requires a live session.
// All authentication failures produce the same 401 response so a caller
// cannot probe which session ids exist; the precise reason goes to the log.
func RequireAuth(opts AuthMiddlewareOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := authenticateRequest(w, r, opts)
			if !ok {
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles returns a middleware that requires a live session holding at
// least one of the given roles. Authentication failures yield 401; a live
// session without any required role yields 403.
func RequireRoles(opts AuthMiddlewareOptions, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := authenticateRequest(w, r, opts)
			if !ok {
				return
			}

			if err := domainauth.Authorize(session.Roles, roles); err != nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns a middleware that attaches the session when present
// but never rejects the request.
func OptionalAuth(opts AuthMiddlewareOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := sessionIDFromRequest(r); id != "" {
				if session, err := opts.Svc.Authenticate(r.Context(), id); err == nil {
					r = r.WithContext(SetSessionInContext(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticateRequest resolves the request's session or writes the unified
// 401 response and returns ok=false.
func authenticateRequest(
	w http.ResponseWriter,
	r *http.Request,
	opts AuthMiddlewareOptions,
) (*domainauth.Session, bool) {
	id := sessionIDFromRequest(r)
	session, err := opts.Svc.Authenticate(r.Context(), id)
	if err == nil {
		return session, true
	}

	if !service.IsAuthFailure(err) {
		opts.logger().ErrorContext(r.Context(), "session lookup failed", "error", err, "path", r.URL.Path)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal",
			Err:     errors.New("internal server error"),
		})
		return nil, false
	}

	// The client sees one uniform rejection; the log keeps the real reason.
	opts.logger().DebugContext(r.Context(), "request rejected", "reason", err, "path", r.URL.Path)
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
	return nil, false
}

// sessionIDFromRequest extracts the session id cookie value, if any.
func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
