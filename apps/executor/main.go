package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/migration"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/platform"
	"github.com/wardenhq/warden/internal/schedaction"
	"github.com/wardenhq/warden/pkg/db"
	"go.uber.org/fx"
)

// Standalone sweep process: runs the scheduled-action executor without the
// HTTP surface, for deployments that separate serving from enforcement.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		schedaction.Module,
		platform.Module,
		executor.Module,
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
