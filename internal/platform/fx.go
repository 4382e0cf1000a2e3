package platform

import (
	"github.com/wardenhq/warden/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Client {
	return NewHTTPClient(Config{
		BaseURL:  cfg.Platform.BaseURL,
		BotToken: cfg.Platform.BotToken,
		Timeout:  cfg.Platform.CallTimeout,
	}, log)
}

var Module = fx.Module("platform",
	fx.Provide(NewFromConfig),
)
