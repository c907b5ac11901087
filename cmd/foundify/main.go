package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/foundify/foundify/internal/audit"
	"github.com/foundify/foundify/internal/billing"
	"github.com/foundify/foundify/internal/checkout"
	"github.com/foundify/foundify/internal/clock"
	"github.com/foundify/foundify/internal/config"
	"github.com/foundify/foundify/internal/entitlement"
	"github.com/foundify/foundify/internal/events"
	"github.com/foundify/foundify/internal/generation"
	"github.com/foundify/foundify/internal/migration"
	"github.com/foundify/foundify/internal/observability"
	"github.com/foundify/foundify/internal/quota"
	"github.com/foundify/foundify/internal/referral"
	"github.com/foundify/foundify/internal/seed"
	"github.com/foundify/foundify/internal/server"
	"github.com/foundify/foundify/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.SeedDevAccounts && !cfg.IsProduction() {
				return seed.EnsureDevAccounts(conn)
			}
			return nil
		}),
		events.Module,
		audit.Module,
		entitlement.Module,
		generation.Module,
		quota.Module,
		billing.Module,
		checkout.Module,
		referral.Module,
		server.Module,
	)
	app.Run()
}
