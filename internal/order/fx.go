package order

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/order/repository"
	"github.com/manosdelsur/feria/internal/order/service"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
