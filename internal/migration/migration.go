// Package migration keeps the schema in sync on startup so the service is
// usable out of the box for local and self-hosted environments.
package migration

import (
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&usagedomain.UsageRecord{},
		&casesdomain.ModerationCase{},
		&schedactiondomain.ScheduledAction{},
	)
}
