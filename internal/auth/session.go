package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionKeyPrincipal = "principal"

// ErrNoSession is returned when the request carries no signed-in principal
var ErrNoSession = errors.New("no session found in cookie")

// SessionOptions configures the shared cookie session
type SessionOptions struct {
	Secret     string
	CookieName string
	MaxAge     int
	Secure     bool
	SameSite   http.SameSite
}

// SessionManager reads the cookie session written by the identity service.
// Establishing a session is the identity service's job; this side only
// reads the principal and can expire the cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

// InitSessions creates a session manager with HTTP-only cookies
func InitSessions(opts SessionOptions) *SessionManager {
	store := sessions.NewCookieStore([]byte(opts.Secret))

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true, // Prevent JavaScript access
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}

	return &SessionManager{
		store: store,
		name:  opts.CookieName,
	}
}

// Principal returns the signed-in principal stored in the request's cookie session
func (sm *SessionManager) Principal(r *http.Request) (string, error) {
	cookieSession, err := sm.store.Get(r, sm.name)
	if err != nil {
		return "", fmt.Errorf("failed to get cookie session: %w", err)
	}

	principal, ok := cookieSession.Values[sessionKeyPrincipal].(string)
	if !ok || principal == "" {
		return "", ErrNoSession
	}

	return principal, nil
}

// Clear expires the cookie session (sign out)
func (sm *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	// A cookie that fails to decode is replaced by a fresh session, which is what we expire
	cookieSession, _ := sm.store.Get(r, sm.name)

	cookieSession.Values = make(map[interface{}]interface{})
	cookieSession.Options.MaxAge = -1
	if err := cookieSession.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear cookie session: %w", err)
	}

	return nil
}

type contextKey struct{}

// PrincipalFromContext retrieves the principal from request context
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(contextKey{}).(string)
	return principal, ok && principal != ""
}

// WithPrincipal stores the principal in request context
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, contextKey{}, principal)
}
