package payment

import (
	"github.com/vendaria/trustcore/internal/payment/provider/mercadopago"
	"github.com/vendaria/trustcore/internal/payment/replaycache"
	"github.com/vendaria/trustcore/internal/payment/repository"
	"github.com/vendaria/trustcore/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(
		mercadopago.NewClient,
		replaycache.New,
		repository.Provide,
		service.NewService,
	),
)
