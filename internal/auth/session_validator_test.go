package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testSessionSigningSecret = "secret"
	testSessionCookieName    = "advocate_session"
	testSessionUserID        = "user-123"
	testSessionUserEmail     = "user@example.com"
)

func newTestIssuerAndValidator(t *testing.T, clock func() time.Time) (*TokenIssuer, *SessionValidator) {
	t.Helper()
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
	validator, err := NewSessionValidator(SessionValidatorConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		Issuer:        issuer.Issuer(),
		Audience:      issuer.Audience(),
		CookieName:    testSessionCookieName,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("failed to construct validator: %v", err)
	}
	return issuer, validator
}

func issueTestToken(t *testing.T, issuer *TokenIssuer) string {
	t.Helper()
	token, _, err := issuer.IssueSessionToken(context.Background(), Actor{
		ID:            testSessionUserID,
		Email:         testSessionUserEmail,
		SessionID:     "session-1",
		ProviderToken: "provider-token",
	})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func TestSessionValidatorValidateToken(t *testing.T) {
	clockNow := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	issuer, validator := newTestIssuerAndValidator(t, func() time.Time { return clockNow })

	claims, err := validator.ValidateToken(issueTestToken(t, issuer))
	if err != nil {
		t.Fatalf("unexpected validation failure: %v", err)
	}
	if claims.Subject != testSessionUserID || claims.UserEmail != testSessionUserEmail {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionValidatorValidateTokenExpired(t *testing.T) {
	clockNow := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	issuer, validator := newTestIssuerAndValidator(t, func() time.Time { return clockNow })
	token := issueTestToken(t, issuer)

	clockNow = clockNow.Add(2 * time.Hour)
	if _, err := validator.ValidateToken(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
	claims, err := validator.claimsIgnoringExpiry(token)
	if err != nil {
		t.Fatalf("expected expired token to still carry claims: %v", err)
	}
	if claims.ProviderToken != "provider-token" {
		t.Fatalf("unexpected provider token %q", claims.ProviderToken)
	}
}

func TestSessionValidatorRejectsForeignSecret(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC) }
	_, validator := newTestIssuerAndValidator(t, clock)
	foreign := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("other"), Clock: clock})

	if _, err := validator.ValidateToken(issueTestToken(t, foreign)); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestSessionValidatorValidateRequestUsesCookie(t *testing.T) {
	issuer, validator := newTestIssuerAndValidator(t, time.Now)

	request := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
	if _, err := validator.ValidateRequest(request); !errors.Is(err, ErrMissingSessionToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	request.AddCookie(&http.Cookie{
		Name:  testSessionCookieName,
		Value: issueTestToken(t, issuer),
	})

	claims, err := validator.ValidateRequest(request)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if claims.Subject != testSessionUserID {
		t.Fatalf("unexpected user id: %s", claims.Subject)
	}
}

func TestNewSessionValidatorRequiresConfiguration(t *testing.T) {
	if _, err := NewSessionValidator(SessionValidatorConfig{Issuer: "i", CookieName: "c"}); !errors.Is(err, ErrMissingSessionSigningKey) {
		t.Fatalf("expected missing signing key, got %v", err)
	}
	if _, err := NewSessionValidator(SessionValidatorConfig{SigningSecret: []byte("s"), CookieName: "c"}); !errors.Is(err, ErrMissingSessionIssuer) {
		t.Fatalf("expected missing issuer, got %v", err)
	}
	if _, err := NewSessionValidator(SessionValidatorConfig{SigningSecret: []byte("s"), Issuer: "i"}); !errors.Is(err, ErrMissingSessionCookieName) {
		t.Fatalf("expected missing cookie name, got %v", err)
	}
}
