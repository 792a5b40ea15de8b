package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL      = 12 * time.Hour
	defaultSessionIssuer = "advocate-site"
	defaultAudience      = "advocate-console"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
	errMissingSessionID     = errors.New("session id must be provided")
)

// TokenIssuerConfig configures the session cookie issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer signs the session cookie minted after a successful sign-in.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultSessionIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	return &TokenIssuer{
		config: TokenIssuerConfig{
			SigningSecret: append([]byte(nil), cfg.SigningSecret...),
			Issuer:        issuer,
			Audience:      audience,
			TokenTTL:      ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// Issuer returns the issuer stamped into every token.
func (i *TokenIssuer) Issuer() string {
	return i.config.Issuer
}

// Audience returns the audience stamped into every token.
func (i *TokenIssuer) Audience() string {
	return i.config.Audience
}

// IssueSessionToken produces a signed JWT for the actor and its expiry time.
func (i *TokenIssuer) IssueSessionToken(_ context.Context, actor Actor) (string, time.Time, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", time.Time{}, errMissingSigningSecret
	}
	if strings.TrimSpace(actor.ID) == "" {
		return "", time.Time{}, errMissingSubjectClaim
	}
	if strings.TrimSpace(actor.SessionID) == "" {
		return "", time.Time{}, errMissingSessionID
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.config.TokenTTL).UTC()

	claims := SessionClaims{
		UserEmail:     actor.Email,
		ProviderToken: actor.ProviderToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        actor.SessionID,
			Subject:   actor.ID,
			Issuer:    i.config.Issuer,
			Audience:  []string{i.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.SigningSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
