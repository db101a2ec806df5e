package authorization

import (
	"context"
	"errors"
)

type Service interface {
	// Authorize checks whether actor (a user UID) may perform action on
	// object within tenant tenantID. The actor's role is resolved from the
	// trusted user directory, never from caller-supplied claims.
	Authorize(ctx context.Context, actorUID string, tenantID string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
