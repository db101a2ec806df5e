package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/vendaria/trustcore/internal/auth/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		clock: p.Clock,
	}
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (string, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return "", domain.ErrInvalidSession
	}

	var session domain.Session
	err := s.db.WithContext(ctx).Raw(
		`SELECT token_hash, uid, expires_at, created_at
		 FROM sessions
		 WHERE token_hash = ?
		 LIMIT 1`,
		hashToken(rawToken),
	).Scan(&session).Error
	if err != nil {
		return "", err
	}
	if session.UID == "" {
		return "", domain.ErrInvalidSession
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return "", domain.ErrSessionExpired
	}
	return session.UID, nil
}

func (s *Service) Issue(ctx context.Context, uid string, ttl time.Duration) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", domain.ErrInvalidSession
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	rawToken := hex.EncodeToString(buf)

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO sessions (token_hash, uid, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		hashToken(rawToken),
		uid,
		now.Add(ttl),
		now,
	).Error
	if err != nil {
		return "", err
	}
	return rawToken, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
