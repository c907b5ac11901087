// Package db opens the shared gorm handle.
package db

import (
	"errors"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured database. Postgres in production;
// sqlite is supported for local development.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	dsn := strings.TrimSpace(cfg.Database.DSN)

	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch driver {
	case "postgres", "":
		if dsn == "" {
			return nil, errors.New("database dsn is required for postgres")
		}
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		if dsn == "" {
			dsn = "file:foundify.db?_pragma=busy_timeout(5000)"
		}
		conn, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, errors.New("unsupported database driver: " + driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected", zap.String("driver", driver))
	return conn, nil
}
