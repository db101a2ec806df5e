package identity

import (
	"github.com/vendaria/trustcore/internal/identity/repository"
	"github.com/vendaria/trustcore/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
