package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectTenantBackup  = "tenant_backup"
	ObjectTenantRestore = "tenant_restore"
	ObjectUsageMetrics  = "usage_metrics"
	ObjectAuditLog      = "audit_log"
)

const (
	ActionBackupRequest  = "backup.request"
	ActionRestoreRequest = "restore.request"
	ActionRestoreApprove = "restore.approve"
	ActionUsageView      = "usage.view"
	ActionUsageViewAll   = "usage.view_all"
	ActionAuditLogView   = "audit_log.view"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Enforcer    *casbin.SyncedEnforcer
	IdentitySvc identitydomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	enforcer    *casbin.SyncedEnforcer
	identitySvc identitydomain.Service
	auditSvc    auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("authorization.service"),
		enforcer:    p.Enforcer,
		identitySvc: p.IdentitySvc,
		auditSvc:    p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actorUID string, tenantID string, object string, action string) error {
	actorUID = strings.TrimSpace(actorUID)
	if actorUID == "" {
		return ErrInvalidActor
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ErrInvalidTenant
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	user, err := s.identitySvc.Resolve(ctx, actorUID)
	if err != nil {
		s.auditDenied(ctx, actorUID, tenantID, object, action)
		return ErrInvalidActor
	}

	// Tenant-tier roles only ever act inside their own tenant's domain.
	if !user.IsSuperAdmin && user.TenantID != tenantID {
		s.auditDenied(ctx, actorUID, tenantID, object, action)
		return ErrForbidden
	}

	subject := fmt.Sprintf("user:%s", actorUID)
	roleName := fmt.Sprintf("role:%s", user.NormalizedRole())
	domain := fmt.Sprintf("tenant:%s", tenantID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorUID, tenantID, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorUID string, tenantID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &tenantID, "user", &actorUID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":    object,
		"action":    action,
		"tenant_id": tenantID,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Tenant operators may propose backups/restores and read their
		// own tenant's metrics. They can never approve a restore.
		{"role:owner", ObjectTenantBackup, ActionBackupRequest},
		{"role:owner", ObjectTenantRestore, ActionRestoreRequest},
		{"role:owner", ObjectUsageMetrics, ActionUsageView},
		{"role:owner", ObjectAuditLog, ActionAuditLogView},

		{"role:admin", ObjectTenantBackup, ActionBackupRequest},
		{"role:admin", ObjectTenantRestore, ActionRestoreRequest},
		{"role:admin", ObjectUsageMetrics, ActionUsageView},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},

		// Platform superAdmin: cross-tenant, and the only role that can
		// approve a restore (two-person integrity).
		{"role:superadmin", ObjectTenantBackup, ActionBackupRequest},
		{"role:superadmin", ObjectTenantRestore, ActionRestoreRequest},
		{"role:superadmin", ObjectTenantRestore, ActionRestoreApprove},
		{"role:superadmin", ObjectUsageMetrics, ActionUsageView},
		{"role:superadmin", ObjectUsageMetrics, ActionUsageViewAll},
		{"role:superadmin", ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
