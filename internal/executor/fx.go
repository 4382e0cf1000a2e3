package executor

import (
	"context"

	"github.com/wardenhq/warden/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("executor",
	fx.Provide(
		func(cfg config.Config) Config {
			return Config{
				PollInterval:   cfg.Executor.PollInterval,
				MaxConcurrency: cfg.Executor.MaxConcurrency,
				RunTimeout:     cfg.Executor.RunTimeout,
			}
		},
		NewExecutor,
	),
	fx.Invoke(runExecutor),
)

func runExecutor(lc fx.Lifecycle, exec *Executor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go exec.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
