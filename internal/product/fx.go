package product

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/internal/product/service"
)

var Module = fx.Module("product",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
