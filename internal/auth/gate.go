package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errMissingTokenIssuer = errors.New("gate: token issuer required")
	errMissingValidator   = errors.New("gate: session validator required")
)

// Actor is the signed-in operator.
type Actor struct {
	ID            string
	Email         string
	SessionID     string
	ProviderToken string
}

// Context attaches the actor's provider token for row-level store access.
func (a *Actor) Context(ctx context.Context) context.Context {
	if a == nil {
		return ctx
	}
	return store.WithAccessToken(ctx, a.ProviderToken)
}

// Session is the result of a successful sign-in: the cookie token to hand to
// the browser and the actor it identifies.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Actor     Actor
}

// GateConfig describes the dependencies of the session gate. A nil
// Authenticator selects degraded mode.
type GateConfig struct {
	Authenticator store.Authenticator
	Issuer        *TokenIssuer
	Validator     *SessionValidator
	Logger        *zap.Logger
}

// Gate answers who is signed in and performs sign-in and sign-out.
type Gate struct {
	authenticator store.Authenticator
	issuer        *TokenIssuer
	validator     *SessionValidator
	logger        *zap.Logger
}

// NewGate constructs a Gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Issuer == nil {
		return nil, errMissingTokenIssuer
	}
	if cfg.Validator == nil {
		return nil, errMissingValidator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Authenticator == nil {
		logger.Warn("session service not configured; sign-in disabled")
	}
	return &Gate{
		authenticator: cfg.Authenticator,
		issuer:        cfg.Issuer,
		validator:     cfg.Validator,
		logger:        logger,
	}, nil
}

// Degraded reports whether sign-in is unavailable.
func (g *Gate) Degraded() bool {
	return g == nil || g.authenticator == nil
}

// SignIn authenticates the operator and mints the session cookie token.
// Degraded mode returns an empty session and no error.
func (g *Gate) SignIn(ctx context.Context, email, secret string) (Session, error) {
	if g.Degraded() {
		return Session{}, nil
	}
	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return Session{}, store.ErrInvalidCredentials
	}
	providerSession, err := g.authenticator.SignIn(ctx, email, secret)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			g.logger.Info("sign-in rejected", zap.String("email", email))
		} else {
			g.logger.Error("sign-in failed", zap.String("email", email), zap.Error(err))
		}
		return Session{}, err
	}

	actor := Actor{
		ID:            providerSession.User.ID,
		Email:         providerSession.User.Email,
		SessionID:     uuid.NewString(),
		ProviderToken: providerSession.AccessToken,
	}
	if actor.Email == "" {
		actor.Email = email
	}
	token, expiresAt, err := g.issuer.IssueSessionToken(ctx, actor)
	if err != nil {
		g.logger.Error("session token issuance failed", zap.Error(err))
		return Session{}, err
	}
	g.logger.Info("operator signed in", zap.String("actor_id", actor.ID), zap.String("session_id", actor.SessionID))
	return Session{Token: token, ExpiresAt: expiresAt, Actor: actor}, nil
}

// SignOut revokes the provider session behind the cookie token. Missing,
// expired and unknown tokens are already signed out.
func (g *Gate) SignOut(ctx context.Context, token string) error {
	if g.Degraded() || strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := g.validator.claimsIgnoringExpiry(token)
	if err != nil {
		g.logger.Debug("sign-out with unusable token", zap.Error(err))
		return nil
	}
	if claims.ProviderToken == "" {
		return nil
	}
	if err := g.authenticator.SignOut(ctx, claims.ProviderToken); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		g.logger.Error("sign-out failed", zap.String("session_id", claims.ID), zap.Error(err))
		return err
	}
	g.logger.Info("operator signed out", zap.String("actor_id", claims.Subject), zap.String("session_id", claims.ID))
	return nil
}

// CurrentActor returns the operator behind the cookie token, or nil when
// there is none. Failures are logged and reported as no actor.
func (g *Gate) CurrentActor(ctx context.Context, token string) *Actor {
	if g.Degraded() || strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := g.validator.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredSessionToken) {
			g.logger.Info("session token expired", zap.Error(err))
		} else {
			g.logger.Warn("session token rejected", zap.Error(err))
		}
		return nil
	}
	user, err := g.authenticator.User(ctx, claims.ProviderToken)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			g.logger.Info("provider session ended", zap.String("session_id", claims.ID))
		} else {
			g.logger.Error("provider session lookup failed", zap.String("session_id", claims.ID), zap.Error(err))
		}
		return nil
	}
	if user.ID != claims.Subject {
		g.logger.Warn("session subject mismatch", zap.String("session_id", claims.ID))
		return nil
	}
	email := user.Email
	if email == "" {
		email = claims.UserEmail
	}
	return &Actor{
		ID:            user.ID,
		Email:         email,
		SessionID:     claims.ID,
		ProviderToken: claims.ProviderToken,
	}
}
