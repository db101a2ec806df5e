package service_test

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"github.com/vendaria/trustcore/internal/config"
	paymentdomain "github.com/vendaria/trustcore/internal/payment/domain"
	paymentrepo "github.com/vendaria/trustcore/internal/payment/repository"
	paymentservice "github.com/vendaria/trustcore/internal/payment/service"
	"github.com/vendaria/trustcore/internal/payment/signature"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type fakeProvider struct {
	payments map[string]*paymentdomain.ProviderPayment
	err      error
	calls    int
}

func (f *fakeProvider) GetPayment(ctx context.Context, providerPaymentID string) (*paymentdomain.ProviderPayment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	payment, ok := f.payments[providerPaymentID]
	if !ok {
		return nil, paymentdomain.ErrInvalidPayment
	}
	return payment, nil
}

type noopAuditService struct{}

func (noopAuditService) AuditLog(ctx context.Context, tenantID *string, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (noopAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			provider_payment_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			order_id TEXT,
			status TEXT NOT NULL,
			raw TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payments_tenant_provider_payment ON payments(tenant_id, provider_payment_id)`,
		`CREATE TABLE webhook_nonces (
			provider_payment_id TEXT NOT NULL,
			request_id TEXT NOT NULL,
			signed_ts BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (provider_payment_id, request_id)
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB, provider *fakeProvider) paymentdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	return paymentservice.NewService(paymentservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Cfg:      config.Config{MercadoPagoWebhookSecret: testSecret},
		Provider: provider,
		Repo:     paymentrepo.Provide(),
		AuditSvc: noopAuditService{},
	})
}

func signedHeaders(paymentID, requestID string, ts int64) http.Header {
	mac := signature.Compute(testSecret, paymentID, requestID, ts)
	headers := http.Header{}
	headers.Set(signature.Header, fmt.Sprintf("ts=%d,v1=%s", ts, hex.EncodeToString(mac)))
	return headers
}

func approvedPayment(paymentID, tenantID string) *paymentdomain.ProviderPayment {
	return &paymentdomain.ProviderPayment{
		ID:                paymentID,
		Status:            "approved",
		ExternalReference: "order-123",
		TenantID:          tenantID,
		Raw:               []byte(`{"id":123,"status":"approved"}`),
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM " + table).Scan(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func loadStatus(t *testing.T, db *gorm.DB, tenantID, paymentID string) string {
	t.Helper()
	var status string
	err := db.Raw(
		"SELECT status FROM payments WHERE tenant_id = ? AND provider_payment_id = ?",
		tenantID, paymentID,
	).Scan(&status).Error
	if err != nil {
		t.Fatalf("load status: %v", err)
	}
	return status
}

func TestHandleWebhookReconcilesPayment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": approvedPayment("123", "tenant-001"),
	}}
	svc := newService(t, db, provider)

	if err := svc.HandleWebhook(ctx, signedHeaders("123", "req-1", 1700000000), "123", "req-1"); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	if got := countRows(t, db, "payments"); got != 1 {
		t.Fatalf("expected 1 payment row, got %d", got)
	}
	if got := countRows(t, db, "webhook_nonces"); got != 1 {
		t.Fatalf("expected 1 nonce row, got %d", got)
	}
	if got := loadStatus(t, db, "tenant-001", "123"); got != string(paymentdomain.StatusApproved) {
		t.Fatalf("expected status APPROVED, got %s", got)
	}
}

func TestHandleWebhookRejectsRedelivery(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": approvedPayment("123", "tenant-001"),
	}}
	svc := newService(t, db, provider)

	headers := signedHeaders("123", "req-1", 1700000000)
	if err := svc.HandleWebhook(ctx, headers, "123", "req-1"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	err := svc.HandleWebhook(ctx, headers, "123", "req-1")
	if !errors.Is(err, paymentdomain.ErrReplayedDelivery) {
		t.Fatalf("expected ErrReplayedDelivery, got %v", err)
	}
	if got := countRows(t, db, "payments"); got != 1 {
		t.Fatalf("expected replay to leave 1 payment row, got %d", got)
	}
	if provider.calls != 1 {
		t.Fatalf("expected replay to skip provider fetch, got %d calls", provider.calls)
	}
}

func TestHandleWebhookRejectsInvalidSignature(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": approvedPayment("123", "tenant-001"),
	}}
	svc := newService(t, db, provider)

	headers := http.Header{}
	headers.Set(signature.Header, "ts=1700000000,v1=deadbeef")

	err := svc.HandleWebhook(ctx, headers, "123", "req-1")
	if !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if got := countRows(t, db, "payments"); got != 0 {
		t.Fatalf("expected no payment rows, got %d", got)
	}
	if got := countRows(t, db, "webhook_nonces"); got != 0 {
		t.Fatalf("expected no nonce rows, got %d", got)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider fetch on bad signature, got %d calls", provider.calls)
	}
}

func TestHandleWebhookTerminalStatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": approvedPayment("123", "tenant-001"),
	}}
	svc := newService(t, db, provider)

	if err := svc.HandleWebhook(ctx, signedHeaders("123", "req-1", 1700000000), "123", "req-1"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// A later delivery reporting a non-terminal provider state must not
	// move the stored status off APPROVED.
	provider.payments["123"] = &paymentdomain.ProviderPayment{
		ID:       "123",
		Status:   "pending",
		TenantID: "tenant-001",
		Raw:      []byte(`{"id":123,"status":"pending"}`),
	}
	if err := svc.HandleWebhook(ctx, signedHeaders("123", "req-2", 1700000100), "123", "req-2"); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if got := loadStatus(t, db, "tenant-001", "123"); got != string(paymentdomain.StatusApproved) {
		t.Fatalf("expected terminal status to stay APPROVED, got %s", got)
	}
	if got := countRows(t, db, "webhook_nonces"); got != 2 {
		t.Fatalf("expected both nonces recorded, got %d", got)
	}
}

func TestHandleWebhookUpdatesNonTerminalStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": {
			ID:       "123",
			Status:   "pending",
			TenantID: "tenant-001",
			Raw:      []byte(`{"id":123,"status":"pending"}`),
		},
	}}
	svc := newService(t, db, provider)

	if err := svc.HandleWebhook(ctx, signedHeaders("123", "req-1", 1700000000), "123", "req-1"); err != nil {
		t.Fatalf("pending delivery: %v", err)
	}
	if got := loadStatus(t, db, "tenant-001", "123"); got != string(paymentdomain.StatusPending) {
		t.Fatalf("expected PENDING, got %s", got)
	}

	provider.payments["123"] = approvedPayment("123", "tenant-001")
	if err := svc.HandleWebhook(ctx, signedHeaders("123", "req-2", 1700000100), "123", "req-2"); err != nil {
		t.Fatalf("approved delivery: %v", err)
	}

	if got := loadStatus(t, db, "tenant-001", "123"); got != string(paymentdomain.StatusApproved) {
		t.Fatalf("expected APPROVED after update, got %s", got)
	}
	if got := countRows(t, db, "payments"); got != 1 {
		t.Fatalf("expected single payment row after merge, got %d", got)
	}
}

func TestHandleWebhookProviderUnavailable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{err: paymentdomain.ErrProviderUnavailable}
	svc := newService(t, db, provider)

	err := svc.HandleWebhook(ctx, signedHeaders("123", "req-1", 1700000000), "123", "req-1")
	if !errors.Is(err, paymentdomain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if got := countRows(t, db, "webhook_nonces"); got != 0 {
		t.Fatalf("expected no nonce on provider failure so the retry can land, got %d", got)
	}
}

func TestHandleWebhookUnknownTenant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	provider := &fakeProvider{payments: map[string]*paymentdomain.ProviderPayment{
		"123": {
			ID:     "123",
			Status: "approved",
			Raw:    []byte(`{"id":123,"status":"approved"}`),
		},
	}}
	svc := newService(t, db, provider)

	err := svc.HandleWebhook(ctx, signedHeaders("123", "req-1", 1700000000), "123", "req-1")
	if !errors.Is(err, paymentdomain.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
	if got := countRows(t, db, "payments"); got != 0 {
		t.Fatalf("expected unroutable event to create no payment, got %d", got)
	}
}
