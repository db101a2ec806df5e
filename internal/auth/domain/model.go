package domain

import (
	"context"
	"errors"
	"time"
)

// Session is a server-side bearer session. Only the caller's identity comes
// from the session token; role and tenant are always re-read from the user
// directory on every privileged call.
type Session struct {
	TokenHash string    `gorm:"primaryKey;column:token_hash" json:"-"`
	UID       string    `gorm:"not null;index" json:"uid"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

var (
	ErrInvalidSession = errors.New("invalid_session")
	ErrSessionExpired = errors.New("session_expired")
)

type Service interface {
	// Authenticate resolves a raw bearer token to the caller's UID.
	Authenticate(ctx context.Context, rawToken string) (string, error)
	// Issue creates a session for uid and returns the raw token.
	Issue(ctx context.Context, uid string, ttl time.Duration) (string, error)
}
