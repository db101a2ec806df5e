package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BackupRequest is a tenant's standing request for an export. It is
// created here and consumed by an external backup job; this core never
// mutates it after creation.
type BackupRequest struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    string       `gorm:"type:text;not null" json:"tenant_id"`
	RequestedBy string       `gorm:"type:text;not null;column:requested_by" json:"requested_by"`
	Reason      string       `gorm:"type:text" json:"reason"`
	Status      string       `gorm:"type:text;not null" json:"status"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

func (BackupRequest) TableName() string { return "backup_requests" }

const BackupStatusPending = "pending"

type RestoreScope string

const (
	ScopeFull       RestoreScope = "full"
	ScopeCollection RestoreScope = "collection"
	ScopeDocument   RestoreScope = "document"
)

// ParseRestoreScope normalizes and validates a caller-supplied scope.
func ParseRestoreScope(raw string) (RestoreScope, error) {
	switch RestoreScope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeFull:
		return ScopeFull, nil
	case ScopeCollection:
		return ScopeCollection, nil
	case ScopeDocument:
		return ScopeDocument, nil
	default:
		return "", ErrInvalidScope
	}
}

type RestoreStatus string

const (
	RestoreStatusRequested RestoreStatus = "requested"
	RestoreStatusApproved  RestoreStatus = "approved"
	RestoreStatusRejected  RestoreStatus = "rejected"
	RestoreStatusFailed    RestoreStatus = "failed"
)

// RestoreRequest moves requested -> approved or requested -> rejected,
// exactly once, and is terminal afterwards.
type RestoreRequest struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID     string         `gorm:"type:text;not null" json:"tenant_id"`
	RunID        string         `gorm:"type:text;not null;column:run_id" json:"run_id"`
	Scope        RestoreScope   `gorm:"type:text;not null" json:"scope"`
	DryRun       bool           `gorm:"not null;column:dry_run" json:"dry_run"`
	Status       RestoreStatus  `gorm:"type:text;not null" json:"status"`
	RequestedBy  string         `gorm:"type:text;not null;column:requested_by" json:"requested_by"`
	ApprovedBy   *string        `gorm:"type:text;column:approved_by" json:"approved_by"`
	ApprovedAt   *time.Time     `gorm:"column:approved_at" json:"approved_at"`
	DiffEstimate datatypes.JSON `gorm:"type:jsonb;column:diff_estimate" json:"diff_estimate"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (RestoreRequest) TableName() string { return "restore_requests" }

// BackupResult reports the request a caller ended up with, including
// whether the dedupe window collapsed it onto an earlier one.
type BackupResult struct {
	RequestID    snowflake.ID
	Deduplicated bool
}

var (
	ErrInvalidScope      = errors.New("invalid_scope")
	ErrInvalidRunID      = errors.New("invalid_run_id")
	ErrTenantNotFound    = errors.New("tenant_not_found")
	ErrRestoreNotFound   = errors.New("restore_not_found")
	ErrRestoreNotPending = errors.New("restore_not_pending")
	ErrInvalidRestoreID  = errors.New("invalid_restore_id")
)

// Estimator computes the diff estimate attached to a restore request.
type Estimator interface {
	Estimate(ctx context.Context, tenantID string, scope RestoreScope) (map[string]int64, error)
}

type Repository interface {
	TenantExists(ctx context.Context, db *gorm.DB, tenantID string) (bool, error)
	InsertBackupRequest(ctx context.Context, db *gorm.DB, request *BackupRequest) error
	FindBackupRequestSince(ctx context.Context, db *gorm.DB, tenantID string, since time.Time) (*BackupRequest, error)
	InsertRestoreRequest(ctx context.Context, db *gorm.DB, request *RestoreRequest) error
	FindRestoreRequest(ctx context.Context, db *gorm.DB, tenantID string, restoreID snowflake.ID) (*RestoreRequest, error)
	ApproveRestoreRequest(ctx context.Context, db *gorm.DB, tenantID string, restoreID snowflake.ID, approvedBy string, approvedAt time.Time) (bool, error)
	CountBackupsByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error)
}

type Service interface {
	RequestBackup(ctx context.Context, actorUID string, tenantID string, reason string) (*BackupResult, error)
	RequestRestore(ctx context.Context, actorUID string, tenantID string, runID string, scope string, dryRun bool) (*RestoreRequest, error)
	ApproveRestore(ctx context.Context, actorUID string, tenantID string, restoreID snowflake.ID) (*RestoreRequest, error)
}
