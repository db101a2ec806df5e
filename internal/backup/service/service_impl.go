package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/authorization"
	backupdomain "github.com/vendaria/trustcore/internal/backup/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"github.com/vendaria/trustcore/internal/config"
	"github.com/vendaria/trustcore/internal/guard"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	obsmetrics "github.com/vendaria/trustcore/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	IdentitySvc identitydomain.Service
	AuthzSvc    authorization.Service
	Repo        backupdomain.Repository
	Estimator   backupdomain.Estimator
	AuditSvc    auditdomain.Service `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	cfg         config.Config
	identitySvc identitydomain.Service
	authzSvc    authorization.Service
	repo        backupdomain.Repository
	estimator   backupdomain.Estimator
	auditSvc    auditdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) backupdomain.Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("backup.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		cfg:         p.Cfg,
		identitySvc: p.IdentitySvc,
		authzSvc:    p.AuthzSvc,
		repo:        p.Repo,
		estimator:   p.Estimator,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

// resolveActor loads the trusted user record and runs the shared guard
// chain. Role and tenant always come from this record, never from claims.
func (s *ServiceImpl) resolveActor(ctx context.Context, actorUID string, tenantID string, roles ...string) (*identitydomain.User, error) {
	user, err := s.identitySvc.Resolve(ctx, actorUID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, s.deny(guard.Unauthenticated(""))
		}
		return nil, err
	}
	if err := guard.RequireTenantScope(user, tenantID); err != nil {
		return nil, s.deny(err)
	}
	if err := guard.RequireRole(user, roles...); err != nil {
		return nil, s.deny(err)
	}
	return user, nil
}

func (s *ServiceImpl) deny(err error) error {
	var callableErr *guard.Error
	if s.obsMetrics != nil && errors.As(err, &callableErr) {
		s.obsMetrics.RecordGuardDenial(string(callableErr.Code))
	}
	return err
}

func (s *ServiceImpl) authorize(ctx context.Context, actorUID string, tenantID string, object string, action string) error {
	err := s.authzSvc.Authorize(ctx, actorUID, tenantID, object, action)
	if err == nil {
		return nil
	}
	if errors.Is(err, authorization.ErrForbidden) || errors.Is(err, authorization.ErrInvalidActor) {
		return s.deny(guard.PermissionDenied(""))
	}
	if errors.Is(err, authorization.ErrInvalidTenant) {
		return guard.InvalidArgument("A tenantId is required.")
	}
	return err
}

func (s *ServiceImpl) RequestBackup(ctx context.Context, actorUID string, tenantID string, reason string) (*backupdomain.BackupResult, error) {
	tenantID = strings.TrimSpace(tenantID)
	user, err := s.resolveActor(ctx, actorUID, tenantID,
		identitydomain.RoleOwner, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorUID, tenantID, authorization.ObjectTenantBackup, authorization.ActionBackupRequest); err != nil {
		return nil, err
	}

	window := s.cfg.BackupDedupeWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	now := s.clock.Now()

	var result backupdomain.BackupResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindBackupRequestSince(ctx, tx, tenantID, now.Add(-window))
		if err != nil {
			return err
		}
		if existing != nil {
			result = backupdomain.BackupResult{RequestID: existing.ID, Deduplicated: true}
			return nil
		}

		request := &backupdomain.BackupRequest{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			RequestedBy: user.UID,
			Reason:      strings.TrimSpace(reason),
			Status:      backupdomain.BackupStatusPending,
			CreatedAt:   now,
		}
		if err := s.repo.InsertBackupRequest(ctx, tx, request); err != nil {
			return err
		}
		result = backupdomain.BackupResult{RequestID: request.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		outcome := "created"
		if result.Deduplicated {
			outcome = "deduplicated"
		}
		s.obsMetrics.RecordBackupRequest(outcome)
	}
	if !result.Deduplicated {
		s.writeAuditLog(ctx, tenantID, user.UID, "backup.requested", "backup_request", result.RequestID.String(), map[string]any{
			"reason": strings.TrimSpace(reason),
		})
	}
	return &result, nil
}

func (s *ServiceImpl) RequestRestore(ctx context.Context, actorUID string, tenantID string, runID string, scope string, dryRun bool) (*backupdomain.RestoreRequest, error) {
	tenantID = strings.TrimSpace(tenantID)
	user, err := s.resolveActor(ctx, actorUID, tenantID,
		identitydomain.RoleOwner, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorUID, tenantID, authorization.ObjectTenantRestore, authorization.ActionRestoreRequest); err != nil {
		return nil, err
	}

	parsedScope, err := guard.ValidateAndSanitize(scope, func(raw string) (backupdomain.RestoreScope, error) {
		parsed, err := backupdomain.ParseRestoreScope(raw)
		if err != nil {
			return "", guard.InvalidArgument("Invalid scope. Expected full, collection or document.")
		}
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, guard.InvalidArgument("A runId is required.")
	}

	exists, err := s.repo.TenantExists(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, guard.NotFound("The target tenant does not exist.")
	}

	estimate, err := s.estimator.Estimate(ctx, tenantID, parsedScope)
	if err != nil {
		return nil, err
	}
	estimateJSON, err := json.Marshal(estimate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	request := &backupdomain.RestoreRequest{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		RunID:        runID,
		Scope:        parsedScope,
		DryRun:       dryRun,
		Status:       backupdomain.RestoreStatusRequested,
		RequestedBy:  user.UID,
		DiffEstimate: datatypes.JSON(estimateJSON),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertRestoreRequest(ctx, s.db, request); err != nil {
		return nil, err
	}

	s.writeAuditLog(ctx, tenantID, user.UID, "restore.requested", "restore_request", request.ID.String(), map[string]any{
		"run_id":  runID,
		"scope":   string(parsedScope),
		"dry_run": dryRun,
	})
	return request, nil
}

// ApproveRestore is the second half of the two-person control. Only a
// superAdmin resolved from the trusted record may flip a request to
// approved; any tenant-tier principal, the original requester included,
// is rejected.
func (s *ServiceImpl) ApproveRestore(ctx context.Context, actorUID string, tenantID string, restoreID snowflake.ID) (*backupdomain.RestoreRequest, error) {
	tenantID = strings.TrimSpace(tenantID)
	if restoreID == 0 {
		return nil, guard.InvalidArgument("A restoreId is required.")
	}

	user, err := s.identitySvc.Resolve(ctx, actorUID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, s.deny(guard.Unauthenticated(""))
		}
		return nil, err
	}
	if !user.IsSuperAdmin {
		return nil, s.deny(guard.PermissionDenied("Restore approval requires a platform administrator."))
	}
	if err := s.authorize(ctx, actorUID, tenantID, authorization.ObjectTenantRestore, authorization.ActionRestoreApprove); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var approved *backupdomain.RestoreRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		request, err := s.repo.FindRestoreRequest(ctx, tx, tenantID, restoreID)
		if err != nil {
			return err
		}
		if request == nil {
			return guard.NotFound("The restore request does not exist.")
		}
		if request.Status != backupdomain.RestoreStatusRequested {
			return guard.FailedPrecondition("The restore request was already decided.")
		}

		updated, err := s.repo.ApproveRestoreRequest(ctx, tx, tenantID, restoreID, user.UID, now)
		if err != nil {
			return err
		}
		if !updated {
			return guard.FailedPrecondition("The restore request was already decided.")
		}

		request.Status = backupdomain.RestoreStatusApproved
		request.ApprovedBy = &user.UID
		request.ApprovedAt = &now
		request.UpdatedAt = now
		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordRestoreDecision(string(backupdomain.RestoreStatusApproved))
	}
	s.writeAuditLog(ctx, tenantID, user.UID, "restore.approved", "restore_request", restoreID.String(), map[string]any{
		"run_id":       approved.RunID,
		"scope":        string(approved.Scope),
		"requested_by": approved.RequestedBy,
		"approved_by":  user.UID,
	})
	return approved, nil
}

func (s *ServiceImpl) writeAuditLog(ctx context.Context, tenantID string, actorUID string, action string, targetType string, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	err := s.auditSvc.AuditLog(ctx, &tenantID, auditdomain.ActorTypeUser, &actorUID, action, targetType, &targetID, metadata)
	if err != nil {
		s.log.Warn("failed to write backup audit log",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
