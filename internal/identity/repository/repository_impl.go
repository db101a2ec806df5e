package repository

import (
	"context"
	"strings"

	"github.com/vendaria/trustcore/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.User, error) {
	var item domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT uid, email, phone, document_number, role, tenant_id, is_super_admin, created_at
		 FROM users
		 WHERE uid = ?
		 LIMIT 1`,
		strings.TrimSpace(uid),
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.UID == "" {
		return nil, nil
	}
	return &item, nil
}
