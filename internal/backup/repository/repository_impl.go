package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vendaria/trustcore/internal/backup/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) TenantExists(ctx context.Context, db *gorm.DB, tenantID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM tenants WHERE id = ?`,
		tenantID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertBackupRequest(ctx context.Context, db *gorm.DB, request *domain.BackupRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO backup_requests (id, tenant_id, requested_by, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.TenantID,
		request.RequestedBy,
		request.Reason,
		request.Status,
		request.CreatedAt,
	).Error
}

// FindBackupRequestSince returns the tenant's most recent request inside the
// dedupe window. The row is locked so a concurrent request for the same
// tenant serializes on it instead of both passing the window check.
func (r *repo) FindBackupRequestSince(ctx context.Context, db *gorm.DB, tenantID string, since time.Time) (*domain.BackupRequest, error) {
	var request domain.BackupRequest
	query := `SELECT id, tenant_id, requested_by, reason, status, created_at
	 FROM backup_requests
	 WHERE tenant_id = ? AND created_at >= ?
	 ORDER BY created_at DESC
	 LIMIT 1`
	if db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := db.WithContext(ctx).Raw(query, tenantID, since).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

func (r *repo) InsertRestoreRequest(ctx context.Context, db *gorm.DB, request *domain.RestoreRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO restore_requests (
			id, tenant_id, run_id, scope, dry_run, status, requested_by,
			approved_by, approved_at, diff_estimate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.TenantID,
		request.RunID,
		request.Scope,
		request.DryRun,
		request.Status,
		request.RequestedBy,
		request.ApprovedBy,
		request.ApprovedAt,
		request.DiffEstimate,
		request.CreatedAt,
		request.UpdatedAt,
	).Error
}

func (r *repo) FindRestoreRequest(ctx context.Context, db *gorm.DB, tenantID string, restoreID snowflake.ID) (*domain.RestoreRequest, error) {
	var request domain.RestoreRequest
	query := `SELECT id, tenant_id, run_id, scope, dry_run, status, requested_by,
		approved_by, approved_at, diff_estimate, created_at, updated_at
	 FROM restore_requests
	 WHERE tenant_id = ? AND id = ?
	 LIMIT 1`
	if db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := db.WithContext(ctx).Raw(query, tenantID, restoreID).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}

// ApproveRestoreRequest flips requested to approved with a compare-and-set
// so two concurrent approvals can never both win.
func (r *repo) ApproveRestoreRequest(ctx context.Context, db *gorm.DB, tenantID string, restoreID snowflake.ID, approvedBy string, approvedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE restore_requests
		 SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		domain.RestoreStatusApproved,
		approvedBy,
		approvedAt,
		approvedAt,
		tenantID,
		restoreID,
		domain.RestoreStatusRequested,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) CountBackupsByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT status, COUNT(1) AS count
		 FROM backup_requests
		 WHERE tenant_id = ?
		 GROUP BY status`,
		tenantID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
