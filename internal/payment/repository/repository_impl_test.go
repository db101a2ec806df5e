package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/vendaria/trustcore/internal/payment/domain"
	"github.com/vendaria/trustcore/internal/payment/repository"
	"gorm.io/gorm"
)

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
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newPayment(id int64, status domain.Status) *domain.Payment {
	now := time.Now().UTC()
	return &domain.Payment{
		ID:                snowflake.ID(id),
		TenantID:          "tenant-001",
		ProviderPaymentID: "mp-100",
		Provider:          "mercadopago",
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestUpsertNeverDowngradesTerminalStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.Provide()
	ctx := context.Background()

	first := newPayment(1, domain.StatusApproved)
	if err := repo.Upsert(ctx, db, first); err != nil {
		t.Fatalf("insert approved: %v", err)
	}

	// A slower concurrent first delivery would arrive with its own fresh
	// snapshot of the provider state; its write must bounce off the
	// terminal row.
	late := newPayment(2, domain.StatusPending)
	if err := repo.Upsert(ctx, db, late); err != nil {
		t.Fatalf("late upsert: %v", err)
	}

	stored, err := repo.FindForUpdate(ctx, db, "tenant-001", "mp-100")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil {
		t.Fatal("payment missing")
	}
	if stored.Status != domain.StatusApproved {
		t.Fatalf("terminal status regressed: APPROVED -> %s", stored.Status)
	}
}

func TestUpsertAdvancesNonTerminalStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.Provide()
	ctx := context.Background()

	if err := repo.Upsert(ctx, db, newPayment(1, domain.StatusPending)); err != nil {
		t.Fatalf("insert pending: %v", err)
	}
	if err := repo.Upsert(ctx, db, newPayment(2, domain.StatusApproved)); err != nil {
		t.Fatalf("advance to approved: %v", err)
	}

	stored, err := repo.FindForUpdate(ctx, db, "tenant-001", "mp-100")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil || stored.Status != domain.StatusApproved {
		t.Fatalf("expected APPROVED, got %+v", stored)
	}
}
