package guard

import (
	"context"
	"strings"

	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	"github.com/vendaria/trustcore/pkg/tenantctx"
)

// RequireAuth returns the authenticated caller UID from the request context.
func RequireAuth(ctx context.Context) (string, error) {
	uid, ok := tenantctx.ActorUIDFromContext(ctx)
	if !ok {
		return "", Unauthenticated("")
	}
	return uid, nil
}

// RequireTenantScope checks that the trusted user record belongs to the
// requested tenant. SuperAdmins operate cross-tenant; the flag comes from the
// user record, never from token claims.
func RequireTenantScope(user *identitydomain.User, requestedTenantID string) error {
	if user == nil {
		return Unauthenticated("")
	}
	requestedTenantID = strings.TrimSpace(requestedTenantID)
	if requestedTenantID == "" {
		return InvalidArgument("A tenantId is required.")
	}
	if user.IsSuperAdmin {
		return nil
	}
	if user.TenantID != requestedTenantID {
		return PermissionDenied("You don't have access to this tenant.")
	}
	return nil
}

// RequireRole checks the user's normalized role against an allow-list.
func RequireRole(user *identitydomain.User, allowed ...string) error {
	if user == nil {
		return Unauthenticated("")
	}
	role := user.NormalizedRole()
	for _, candidate := range allowed {
		if role == identitydomain.NormalizeRole(candidate) {
			return nil
		}
	}
	return PermissionDenied("")
}

// ValidateAndSanitize runs a caller-supplied parser over a raw payload and
// converts any parse failure into an invalid-argument callable error. It is
// the single trust boundary for caller-declared shapes.
func ValidateAndSanitize[Raw any, Parsed any](raw Raw, parse func(Raw) (Parsed, error)) (Parsed, error) {
	parsed, err := parse(raw)
	if err != nil {
		var zero Parsed
		if callableErr, ok := err.(*Error); ok {
			return zero, callableErr
		}
		return zero, InvalidArgument(err.Error())
	}
	return parsed, nil
}
