package usage

import (
	"github.com/vendaria/trustcore/internal/usage/repository"
	"github.com/vendaria/trustcore/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
