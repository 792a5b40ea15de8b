// Package operators keeps console accounts and their access tokens in the
// local database. It backs sign-in when the site runs on sqlite.
package operators

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultSessionTTL = 12 * time.Hour
	tokenBytes        = 32
	minPasswordLength = 8
)

var (
	// ErrOperatorExists indicates the email already belongs to an operator.
	ErrOperatorExists = errors.New("operators: operator already exists")
	// ErrInvalidOperator indicates the email or password is unusable.
	ErrInvalidOperator = errors.New("operators: email and a password of at least 8 characters are required")
)

// unknownEmailHash keeps sign-in for unknown emails as slow as a real comparison.
var unknownEmailHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-operator"), bcrypt.DefaultCost)

// ServiceConfig describes the dependencies required for operator sign-in.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	SessionTTL time.Duration
	HashCost   int
}

// Service implements store.Authenticator over the operators tables.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	sessionTTL time.Duration
	hashCost   int
}

var _ store.Authenticator = (*Service)(nil)

// NewService constructs the operator service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("operators: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: cfg.Database, now: clock, sessionTTL: ttl, hashCost: cost}, nil
}

// AddOperator creates a console account.
func (s *Service) AddOperator(ctx context.Context, email, password, displayName string) (Operator, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") || len(password) < minPasswordLength {
		return Operator{}, ErrInvalidOperator
	}
	var existing int64
	if err := s.db.WithContext(ctx).Model(&Operator{}).Where("email = ?", normalized).Count(&existing).Error; err != nil {
		return Operator{}, err
	}
	if existing > 0 {
		return Operator{}, ErrOperatorExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return Operator{}, err
	}
	identifier, err := uuid.NewV7()
	if err != nil {
		return Operator{}, err
	}
	operator := Operator{
		ID:           identifier.String(),
		Email:        normalized,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&operator).Error; err != nil {
		return Operator{}, err
	}
	return operator, nil
}

// SignIn verifies the password and issues an access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.AuthSession, error) {
	var operator Operator
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&operator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(unknownEmailHash, []byte(password))
		return store.AuthSession{}, store.ErrInvalidCredentials
	}
	if err != nil {
		return store.AuthSession{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return store.AuthSession{}, store.ErrInvalidCredentials
	}

	token, err := newAccessToken()
	if err != nil {
		return store.AuthSession{}, err
	}
	now := s.now().UTC()
	session := Session{Token: token, OperatorID: operator.ID, ExpiresAt: now.Add(s.sessionTTL)}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return store.AuthSession{}, err
	}
	_ = s.db.WithContext(ctx).Model(&Operator{}).
		Where("id = ?", operator.ID).
		Update("last_seen_at", now).
		Error

	return store.AuthSession{AccessToken: token, User: store.AuthUser{ID: operator.ID, Email: operator.Email}}, nil
}

// SignOut revokes the token. Unknown tokens are already signed out.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	return s.db.WithContext(ctx).Where("token = ?", accessToken).Delete(&Session{}).Error
}

// User resolves the operator behind a live access token.
func (s *Service) User(ctx context.Context, accessToken string) (store.AuthUser, error) {
	if strings.TrimSpace(accessToken) == "" {
		return store.AuthUser{}, store.ErrSessionNotFound
	}
	var session Session
	err := s.db.WithContext(ctx).Where("token = ?", accessToken).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.AuthUser{}, store.ErrSessionNotFound
	}
	if err != nil {
		return store.AuthUser{}, err
	}
	if !s.now().UTC().Before(session.ExpiresAt) {
		_ = s.db.WithContext(ctx).Where("token = ?", accessToken).Delete(&Session{}).Error
		return store.AuthUser{}, store.ErrSessionNotFound
	}

	var operator Operator
	err = s.db.WithContext(ctx).Where("id = ?", session.OperatorID).First(&operator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.AuthUser{}, store.ErrSessionNotFound
	}
	if err != nil {
		return store.AuthUser{}, err
	}
	return store.AuthUser{ID: operator.ID, Email: operator.Email}, nil
}

func newAccessToken() (string, error) {
	buffer := make([]byte, tokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
