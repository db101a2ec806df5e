package service

import (
	"context"
	"strings"

	"github.com/vendaria/trustcore/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("identity.service"),
		repo: p.Repo,
	}
}

func (s *Service) Resolve(ctx context.Context, uid string) (*domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.repo.FindByUID(ctx, s.db, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
