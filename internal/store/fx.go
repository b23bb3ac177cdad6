package store

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/internal/store/service"
)

var Module = fx.Module("store",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
