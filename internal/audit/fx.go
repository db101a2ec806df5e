package audit

import (
	"github.com/vendaria/trustcore/internal/audit/repository"
	"github.com/vendaria/trustcore/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
