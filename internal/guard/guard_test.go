package guard

import (
	"context"
	"errors"
	"testing"

	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	"github.com/vendaria/trustcore/pkg/tenantctx"
)

func TestRequireAuth(t *testing.T) {
	if _, err := RequireAuth(context.Background()); !isCode(err, CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	ctx := tenantctx.WithActorUID(context.Background(), "user-1")
	uid, err := RequireAuth(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("uid = %q", uid)
	}
}

func TestRequireTenantScope(t *testing.T) {
	admin := &identitydomain.User{UID: "u1", Role: "admin", TenantID: "tenant-001"}

	if err := RequireTenantScope(admin, "tenant-001"); err != nil {
		t.Fatalf("same-tenant admin rejected: %v", err)
	}
	if err := RequireTenantScope(admin, "tenant-002"); !isCode(err, CodePermissionDenied) {
		t.Fatalf("cross-tenant admin must be denied, got %v", err)
	}
	if err := RequireTenantScope(admin, ""); !isCode(err, CodeInvalidArgument) {
		t.Fatalf("empty tenant must be invalid-argument, got %v", err)
	}

	super := &identitydomain.User{UID: "u2", Role: "admin", TenantID: "tenant-001", IsSuperAdmin: true}
	if err := RequireTenantScope(super, "tenant-002"); err != nil {
		t.Fatalf("superadmin cross-tenant rejected: %v", err)
	}
}

// A forged role string on the user-supplied side must not matter: the guard
// only ever consults the trusted record it is handed.
func TestRequireRoleNormalizes(t *testing.T) {
	user := &identitydomain.User{UID: "u1", Role: "  Admin ", TenantID: "t1"}

	if err := RequireRole(user, identitydomain.RoleOwner, identitydomain.RoleAdmin); err != nil {
		t.Fatalf("normalized role rejected: %v", err)
	}
	if err := RequireRole(user, identitydomain.RoleSuperAdmin); !isCode(err, CodePermissionDenied) {
		t.Fatalf("admin claiming superadmin must be denied, got %v", err)
	}

	super := &identitydomain.User{UID: "u2", Role: "admin", TenantID: "t1", IsSuperAdmin: true}
	if err := RequireRole(super, identitydomain.RoleSuperAdmin); err != nil {
		t.Fatalf("superadmin flag must resolve role: %v", err)
	}
}

func TestValidateAndSanitize(t *testing.T) {
	type payload struct {
		TenantID string
	}

	parse := func(raw map[string]any) (payload, error) {
		tenantID, _ := raw["tenantId"].(string)
		if tenantID == "" {
			return payload{}, errors.New("tenantId is required")
		}
		return payload{TenantID: tenantID}, nil
	}

	got, err := ValidateAndSanitize(map[string]any{"tenantId": "tenant-001"}, parse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TenantID != "tenant-001" {
		t.Fatalf("parsed = %+v", got)
	}

	if _, err := ValidateAndSanitize(map[string]any{}, parse); !isCode(err, CodeInvalidArgument) {
		t.Fatalf("expected invalid-argument, got %v", err)
	}
}

func isCode(err error, code Code) bool {
	var callableErr *Error
	if !errors.As(err, &callableErr) {
		return false
	}
	return callableErr.Code == code
}
