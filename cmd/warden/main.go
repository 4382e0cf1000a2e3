package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wardenhq/warden/internal/budget"
	"github.com/wardenhq/warden/internal/cases"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/genai"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/migration"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/pipeline"
	"github.com/wardenhq/warden/internal/platform"
	"github.com/wardenhq/warden/internal/schedaction"
	"github.com/wardenhq/warden/internal/server"
	"github.com/wardenhq/warden/internal/triage"
	"github.com/wardenhq/warden/internal/usage"
	"github.com/wardenhq/warden/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		usage.Module,
		budget.Module,
		genai.Module,
		triage.Module,
		cases.Module,
		schedaction.Module,
		platform.Module,
		pipeline.Module,
		executor.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
