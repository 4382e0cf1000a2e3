package genai

import (
	"github.com/wardenhq/warden/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Client {
	return NewHTTPClient(Config{
		Endpoint:  cfg.Triage.Endpoint,
		APIKey:    cfg.Triage.APIKey,
		Model:     cfg.Triage.Model,
		MaxTokens: cfg.Triage.MaxTokens,
		Timeout:   cfg.Triage.CallTimeout,
	}, log)
}

var Module = fx.Module("genai",
	fx.Provide(NewFromConfig),
)
