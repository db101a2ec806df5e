package estimator

import (
	"context"

	"github.com/vendaria/trustcore/internal/backup/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// rowCountEstimator sizes a restore by counting the tenant's rows in each
// restorable table. A dry run stores this estimate and nothing else.
type rowCountEstimator struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) domain.Estimator {
	return &rowCountEstimator{
		db:  db,
		log: log.Named("backup.estimator"),
	}
}

var scopeTables = map[domain.RestoreScope][]string{
	domain.ScopeFull:       {"payments", "backup_requests", "restore_requests", "audit_logs", "users"},
	domain.ScopeCollection: {"payments"},
	domain.ScopeDocument:   {"payments"},
}

func (e *rowCountEstimator) Estimate(ctx context.Context, tenantID string, scope domain.RestoreScope) (map[string]int64, error) {
	tables, ok := scopeTables[scope]
	if !ok {
		return nil, domain.ErrInvalidScope
	}

	estimate := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		err := e.db.WithContext(ctx).Raw(
			"SELECT COUNT(1) FROM "+table+" WHERE tenant_id = ?",
			tenantID,
		).Scan(&count).Error
		if err != nil {
			return nil, err
		}
		estimate[table] = count
	}
	return estimate, nil
}
