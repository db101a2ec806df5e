package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vendaria/trustcore/internal/authorization"
	"github.com/vendaria/trustcore/internal/guard"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	usagedomain "github.com/vendaria/trustcore/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// platformTenant is the authorization domain used for superAdmin records
// that have no home tenant of their own.
const platformTenant = "platform"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	IdentitySvc identitydomain.Service
	AuthzSvc    authorization.Service
	Repo        usagedomain.Repository
}

type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	identitySvc identitydomain.Service
	authzSvc    authorization.Service
	repo        usagedomain.Repository
}

func NewService(p Params) usagedomain.Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("usage.service"),
		identitySvc: p.IdentitySvc,
		authzSvc:    p.AuthzSvc,
		repo:        p.Repo,
	}
}

func (s *ServiceImpl) TenantOverview(ctx context.Context, actorUID string, tenantID string) (*usagedomain.TenantOverview, error) {
	tenantID = strings.TrimSpace(tenantID)

	user, err := s.identitySvc.Resolve(ctx, actorUID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, guard.Unauthenticated("")
		}
		return nil, err
	}
	if err := guard.RequireTenantScope(user, tenantID); err != nil {
		return nil, err
	}
	if err := guard.RequireRole(user, identitydomain.RoleOwner, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.authzSvc.Authorize(ctx, actorUID, tenantID, authorization.ObjectUsageMetrics, authorization.ActionUsageView); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return nil, guard.PermissionDenied("")
		}
		return nil, err
	}

	payments, err := s.repo.PaymentCounts(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	backups, err := s.repo.BackupCounts(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	restores, err := s.repo.RestoreCounts(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	return &usagedomain.TenantOverview{
		TenantID: tenantID,
		Payments: payments,
		Backups:  backups,
		Restores: restores,
	}, nil
}

// GlobalOverview rolls up across every tenant. The caller must resolve to
// superAdmin on the trusted user record.
func (s *ServiceImpl) GlobalOverview(ctx context.Context, actorUID string) (*usagedomain.GlobalOverview, error) {
	user, err := s.identitySvc.Resolve(ctx, actorUID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, guard.Unauthenticated("")
		}
		return nil, err
	}
	if !user.IsSuperAdmin {
		return nil, guard.PermissionDenied("Global usage metrics require a platform administrator.")
	}
	// SuperAdmin records may carry no home tenant; the policy check then
	// runs in the platform domain instead of a tenant domain.
	domainTenant := strings.TrimSpace(user.TenantID)
	if domainTenant == "" {
		domainTenant = platformTenant
	}
	if err := s.authzSvc.Authorize(ctx, actorUID, domainTenant, authorization.ObjectUsageMetrics, authorization.ActionUsageViewAll); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return nil, guard.PermissionDenied("")
		}
		return nil, err
	}

	tenants, err := s.repo.TenantCount(ctx, s.db)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.PaymentCounts(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	backups, err := s.repo.BackupCounts(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	restores, err := s.repo.RestoreCounts(ctx, s.db, "")
	if err != nil {
		return nil, err
	}

	return &usagedomain.GlobalOverview{
		Tenants:  tenants,
		Payments: payments,
		Backups:  backups,
		Restores: restores,
	}, nil
}
