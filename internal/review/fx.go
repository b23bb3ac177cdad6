package review

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/review/repository"
	"github.com/manosdelsur/feria/internal/review/service"
)

var Module = fx.Module("review",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
