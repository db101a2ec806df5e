package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vendaria/trustcore/internal/authorization"
	"github.com/vendaria/trustcore/internal/guard"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	usagedomain "github.com/vendaria/trustcore/internal/usage/domain"
	usageservice "github.com/vendaria/trustcore/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeIdentity struct {
	users map[string]*identitydomain.User
}

func (f *fakeIdentity) Resolve(_ context.Context, uid string) (*identitydomain.User, error) {
	user, ok := f.users[uid]
	if !ok {
		return nil, identitydomain.ErrUserNotFound
	}
	return user, nil
}

// fakeAuthz validates its inputs the way the casbin service does, so an
// empty tenant surfaces as ErrInvalidTenant rather than silently passing.
type fakeAuthz struct {
	lastTenantID string
}

func (f *fakeAuthz) Authorize(_ context.Context, actorUID string, tenantID string, object string, action string) error {
	if tenantID == "" {
		return authorization.ErrInvalidTenant
	}
	f.lastTenantID = tenantID
	return nil
}

type stubRepo struct{}

func (stubRepo) PaymentCounts(_ context.Context, _ *gorm.DB, _ string) (map[string]int64, error) {
	return map[string]int64{"APPROVED": 2}, nil
}

func (stubRepo) BackupCounts(_ context.Context, _ *gorm.DB, _ string) (map[string]int64, error) {
	return map[string]int64{"pending": 1}, nil
}

func (stubRepo) RestoreCounts(_ context.Context, _ *gorm.DB, _ string) (map[string]int64, error) {
	return map[string]int64{"requested": 1}, nil
}

func (stubRepo) TenantCount(_ context.Context, _ *gorm.DB) (int64, error) {
	return 3, nil
}

func newTestService(identity *fakeIdentity, authz *fakeAuthz) usagedomain.Service {
	return usageservice.NewService(usageservice.Params{
		Log:         zap.NewNop(),
		IdentitySvc: identity,
		AuthzSvc:    authz,
		Repo:        stubRepo{},
	})
}

func isCode(t *testing.T, err error, code guard.Code) bool {
	t.Helper()
	var guardErr *guard.Error
	return errors.As(err, &guardErr) && guardErr.Code == code
}

func TestGlobalOverviewAllowsHomelessSuperAdmin(t *testing.T) {
	identity := &fakeIdentity{users: map[string]*identitydomain.User{
		"root-1": {UID: "root-1", Role: identitydomain.RoleAdmin, TenantID: "", IsSuperAdmin: true},
	}}
	authz := &fakeAuthz{}
	svc := newTestService(identity, authz)

	overview, err := svc.GlobalOverview(context.Background(), "root-1")
	if err != nil {
		t.Fatalf("global overview: %v", err)
	}
	if overview.Tenants != 3 {
		t.Fatalf("tenants = %d", overview.Tenants)
	}
	if authz.lastTenantID != "platform" {
		t.Fatalf("policy domain = %q, want platform", authz.lastTenantID)
	}
}

func TestGlobalOverviewDeniesTenantAdmin(t *testing.T) {
	identity := &fakeIdentity{users: map[string]*identitydomain.User{
		"admin-1": {UID: "admin-1", Role: identitydomain.RoleAdmin, TenantID: "tenant-001"},
	}}
	svc := newTestService(identity, &fakeAuthz{})

	_, err := svc.GlobalOverview(context.Background(), "admin-1")
	if !isCode(t, err, guard.CodePermissionDenied) {
		t.Fatalf("expected permission-denied, got %v", err)
	}
}

func TestTenantOverviewCrossTenantDenied(t *testing.T) {
	identity := &fakeIdentity{users: map[string]*identitydomain.User{
		"admin-1": {UID: "admin-1", Role: identitydomain.RoleAdmin, TenantID: "tenant-001"},
	}}
	svc := newTestService(identity, &fakeAuthz{})

	if _, err := svc.TenantOverview(context.Background(), "admin-1", "tenant-002"); !isCode(t, err, guard.CodePermissionDenied) {
		t.Fatalf("expected permission-denied, got %v", err)
	}

	overview, err := svc.TenantOverview(context.Background(), "admin-1", "tenant-001")
	if err != nil {
		t.Fatalf("tenant overview: %v", err)
	}
	if overview.TenantID != "tenant-001" {
		t.Fatalf("tenant = %q", overview.TenantID)
	}
}
