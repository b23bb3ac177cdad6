package support

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/support/repository"
	"github.com/manosdelsur/feria/internal/support/service"
)

var Module = fx.Module("support",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
