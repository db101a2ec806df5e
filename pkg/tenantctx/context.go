package tenantctx

import (
	"context"
	"strings"
)

type tenantKey struct{}
type actorKey struct{}

// WithTenantID stores the active tenant ID in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, strings.TrimSpace(tenantID))
}

// TenantIDFromContext returns the tenant ID from context, if set.
func TenantIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(tenantKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// WithActorUID stores the authenticated caller UID in the context.
func WithActorUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, actorKey{}, strings.TrimSpace(uid))
}

// ActorUIDFromContext returns the authenticated caller UID, if set.
func ActorUIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(actorKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
