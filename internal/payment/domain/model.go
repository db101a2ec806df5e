package domain

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusFailed   Status = "FAILED"
)

// IsTerminal reports whether a stored status may never change again.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// MapProviderStatus maps a raw provider status string onto the internal
// enum. The mapping is total: anything unrecognized, including the empty
// string, lands on FAILED.
func MapProviderStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return StatusApproved
	case "pending", "in_process":
		return StatusPending
	case "rejected", "cancelled", "charged_back":
		return StatusRejected
	default:
		return StatusFailed
	}
}

// Payment is the reconciled view of one provider payment within a tenant.
// (tenant_id, provider_payment_id) is unique.
type Payment struct {
	ID                snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID          string         `gorm:"type:text;not null" json:"tenant_id"`
	ProviderPaymentID string         `gorm:"type:text;not null;column:provider_payment_id" json:"provider_payment_id"`
	Provider          string         `gorm:"type:text;not null" json:"provider"`
	OrderID           string         `gorm:"type:text;column:order_id" json:"order_id"`
	Status            Status         `gorm:"type:text;not null" json:"status"`
	Raw               datatypes.JSON `gorm:"type:jsonb" json:"raw"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// WebhookNonce pins one accepted delivery. Its presence makes any
// identical redelivery a replay.
type WebhookNonce struct {
	ProviderPaymentID string    `gorm:"primaryKey;column:provider_payment_id" json:"provider_payment_id"`
	RequestID         string    `gorm:"primaryKey;column:request_id" json:"request_id"`
	SignedTS          int64     `gorm:"column:signed_ts;not null" json:"signed_ts"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}

func (WebhookNonce) TableName() string { return "webhook_nonces" }

// ProviderPayment is the provider's view of a payment, as returned by the
// lookup API.
type ProviderPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TenantID          string
	Raw               []byte
}

var (
	ErrInvalidSignature    = errors.New("invalid_signature")
	ErrReplayedDelivery    = errors.New("replayed_delivery")
	ErrProviderUnavailable = errors.New("provider_unavailable")
	ErrUnknownTenant       = errors.New("unknown_tenant")
	ErrInvalidPayment      = errors.New("invalid_payment")
	ErrPaymentNotFound     = errors.New("payment_not_found")
)

type Repository interface {
	FindForUpdate(ctx context.Context, db *gorm.DB, tenantID string, providerPaymentID string) (*Payment, error)
	Upsert(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertNonce(ctx context.Context, db *gorm.DB, nonce *WebhookNonce) (bool, error)
	NonceExists(ctx context.Context, db *gorm.DB, providerPaymentID string, requestID string) (bool, error)
	CountByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[Status]int64, error)
}

type Service interface {
	// HandleWebhook runs the full verify / replay-reject / fetch /
	// reconcile pipeline for one provider delivery.
	HandleWebhook(ctx context.Context, headers http.Header, providerPaymentID string, requestID string) error
}
