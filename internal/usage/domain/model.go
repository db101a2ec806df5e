package domain

import (
	"context"

	"gorm.io/gorm"
)

// TenantOverview is the per-tenant monitoring rollup exposed to tenant
// operators.
type TenantOverview struct {
	TenantID string           `json:"tenant_id"`
	Payments map[string]int64 `json:"payments"`
	Backups  map[string]int64 `json:"backups"`
	Restores map[string]int64 `json:"restores"`
}

// GlobalOverview is the cross-tenant rollup. SuperAdmin only.
type GlobalOverview struct {
	Tenants  int64            `json:"tenants"`
	Payments map[string]int64 `json:"payments"`
	Backups  map[string]int64 `json:"backups"`
	Restores map[string]int64 `json:"restores"`
}

type Repository interface {
	PaymentCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error)
	BackupCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error)
	RestoreCounts(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error)
	TenantCount(ctx context.Context, db *gorm.DB) (int64, error)
}

type Service interface {
	TenantOverview(ctx context.Context, actorUID string, tenantID string) (*TenantOverview, error)
	GlobalOverview(ctx context.Context, actorUID string) (*GlobalOverview, error)
}
