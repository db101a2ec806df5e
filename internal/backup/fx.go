package backup

import (
	"github.com/vendaria/trustcore/internal/backup/estimator"
	"github.com/vendaria/trustcore/internal/backup/repository"
	"github.com/vendaria/trustcore/internal/backup/service"
	"go.uber.org/fx"
)

var Module = fx.Module("backup",
	fx.Provide(
		estimator.New,
		repository.Provide,
		service.NewService,
	),
)
