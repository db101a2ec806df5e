package repository

import (
	"context"

	"github.com/vendaria/trustcore/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB, tenantID string, providerPaymentID string) (*domain.Payment, error) {
	var payment domain.Payment
	query := `SELECT id, tenant_id, provider_payment_id, provider, order_id, status, raw, created_at, updated_at
	 FROM payments
	 WHERE tenant_id = ? AND provider_payment_id = ?
	 LIMIT 1`
	if db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := db.WithContext(ctx).Raw(query, tenantID, providerPaymentID).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

// Upsert inserts or merges a payment row. The update clause refuses to touch
// rows already in a terminal status so a slower concurrent first delivery can
// never downgrade a committed APPROVED/REJECTED, even when its own
// FindForUpdate saw no row yet.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, tenant_id, provider_payment_id, provider, order_id, status, raw, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, provider_payment_id) DO UPDATE SET
			provider = excluded.provider,
			order_id = excluded.order_id,
			status = excluded.status,
			raw = excluded.raw,
			updated_at = excluded.updated_at
		WHERE payments.status NOT IN (?, ?)`,
		payment.ID,
		payment.TenantID,
		payment.ProviderPaymentID,
		payment.Provider,
		payment.OrderID,
		payment.Status,
		payment.Raw,
		payment.CreatedAt,
		payment.UpdatedAt,
		domain.StatusApproved,
		domain.StatusRejected,
	).Error
}

func (r *repo) InsertNonce(ctx context.Context, db *gorm.DB, nonce *domain.WebhookNonce) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_nonces (provider_payment_id, request_id, signed_ts, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (provider_payment_id, request_id) DO NOTHING`,
		nonce.ProviderPaymentID,
		nonce.RequestID,
		nonce.SignedTS,
		nonce.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) NonceExists(ctx context.Context, db *gorm.DB, providerPaymentID string, requestID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM webhook_nonces
		 WHERE provider_payment_id = ? AND request_id = ?`,
		providerPaymentID,
		requestID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT status, COUNT(1) AS count
		 FROM payments
		 WHERE tenant_id = ?
		 GROUP BY status`,
		tenantID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
