package schedaction

import (
	"github.com/wardenhq/warden/internal/schedaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("schedaction",
	fx.Provide(
		service.NewService,
	),
)
