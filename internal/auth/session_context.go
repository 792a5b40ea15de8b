package auth

import (
	"context"
	"net/http"
	"time"
)

// CookieConfig describes the session cookie written to browsers.
type CookieConfig struct {
	Secure bool
	Path   string
}

// SessionContext is built once at startup and handed to both the public site
// and the console so they share one view of who is signed in.
type SessionContext struct {
	gate       *Gate
	validator  *SessionValidator
	cookiePath string
	secure     bool
}

// NewSessionContext binds the gate to the cookie it reads and writes.
func NewSessionContext(gate *Gate, validator *SessionValidator, cfg CookieConfig) *SessionContext {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &SessionContext{gate: gate, validator: validator, cookiePath: path, secure: cfg.Secure}
}

// Gate returns the underlying session gate.
func (s *SessionContext) Gate() *Gate {
	return s.gate
}

// CookieName returns the session cookie name.
func (s *SessionContext) CookieName() string {
	return s.validator.CookieName()
}

// Actor resolves the operator behind the request cookie, or nil.
func (s *SessionContext) Actor(r *http.Request) *Actor {
	token, err := s.validator.TokenFromRequest(r)
	if err != nil {
		return nil
	}
	return s.gate.CurrentActor(r.Context(), token)
}

// SignIn authenticates and writes the session cookie.
func (s *SessionContext) SignIn(ctx context.Context, w http.ResponseWriter, email, secret string) (Session, error) {
	session, err := s.gate.SignIn(ctx, email, secret)
	if err != nil || session.Token == "" {
		return session, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.validator.CookieName(),
		Value:    session.Token,
		Path:     s.cookiePath,
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// SignOut revokes the session behind the request cookie and clears it. The
// cookie is cleared even when revocation fails.
func (s *SessionContext) SignOut(w http.ResponseWriter, r *http.Request) error {
	token, _ := s.validator.TokenFromRequest(r)
	err := s.gate.SignOut(r.Context(), token)
	http.SetCookie(w, &http.Cookie{
		Name:     s.validator.CookieName(),
		Value:    "",
		Path:     s.cookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
