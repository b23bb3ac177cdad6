package follow

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/follow/repository"
	"github.com/manosdelsur/feria/internal/follow/service"
)

var Module = fx.Module("follow",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
