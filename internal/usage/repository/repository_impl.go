package repository

import (
	"context"

	"github.com/vendaria/trustcore/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// countByStatus groups a tenant-scoped table by status. An empty tenantID
// rolls up across all tenants.
func countByStatus(ctx context.Context, db *gorm.DB, table string, tenantID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	query := `SELECT status, COUNT(1) AS count FROM ` + table
	args := []any{}
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` GROUP BY status`

	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repo) PaymentCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	return countByStatus(ctx, db, "payments", tenantID)
}

func (r *repo) BackupCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	return countByStatus(ctx, db, "backup_requests", tenantID)
}

func (r *repo) RestoreCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	return countByStatus(ctx, db, "restore_requests", tenantID)
}

func (r *repo) TenantCount(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM tenants`).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
