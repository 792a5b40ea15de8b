package operators

import (
	"strings"
	"time"
)

// Operator is a console account for the sqlite-backed deployment.
type Operator struct {
	ID           string    `gorm:"column:id;primaryKey;size:64;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	DisplayName  string    `gorm:"column:display_name;size:320"`
	PasswordHash string    `gorm:"column:password_hash;size:128;not null"`
	LastSeenAt   time.Time `gorm:"column:last_seen_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing operator accounts.
func (Operator) TableName() string {
	return "operators"
}

// Session is an access token issued to an operator by SignIn.
type Session struct {
	Token      string    `gorm:"column:token;primaryKey;size:128;not null"`
	OperatorID string    `gorm:"column:operator_id;size:64;not null;index"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing operator sessions.
func (Session) TableName() string {
	return "operator_sessions"
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
