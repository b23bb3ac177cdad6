package favorite

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/favorite/repository"
	"github.com/manosdelsur/feria/internal/favorite/service"
)

var Module = fx.Module("favorite",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
