package notification

import (
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/notification/repository"
	"github.com/manosdelsur/feria/internal/notification/service"
)

var Module = fx.Module("notification",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
