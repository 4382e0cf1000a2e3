package cases

import (
	"github.com/wardenhq/warden/internal/cases/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cases",
	fx.Provide(
		service.NewService,
	),
)
