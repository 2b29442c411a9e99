// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file contains database bootstrapping for the
// supported drivers (PostgreSQL, MySQL, SQLite via a pure Go driver), pool
// tuning and schema migrations.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// Open connects to the relational store described by cfg, applies the pool
// settings and installs the tracing plugin. It does not migrate; call
// AutoMigrate explicitly.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig())
	case "mysql":
		dsn, derr := mysqlDSN(cfg)
		if derr != nil {
			return nil, derr
		}
		db, err = gorm.Open(mysql.Open(dsn), gormConfig())
	case "sqlite":
		db, err = OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// postgresDSN appends connect_timeout (seconds) unless the DSN sets one.
func postgresDSN(cfg config.DBConfig) string {
	dsn := cfg.DSN
	secs := int(cfg.ConnectTimeout.Seconds())
	if secs <= 0 || strings.Contains(dsn, "connect_timeout") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("connect_timeout", fmt.Sprint(secs))
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(dsn) + fmt.Sprintf(" connect_timeout=%d", secs)
}

// mysqlDSN forces parseTime and the dial timeout on the configured DSN.
func mysqlDSN(cfg config.DBConfig) (string, error) {
	mc, err := mysqldrv.ParseDSN(cfg.DSN)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 && mc.Timeout == 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	return mc.FormatDSN(), nil
}

// OpenSQLite opens (or creates) a SQLite database with WAL, foreign keys and
// a busy timeout applied on every pooled connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return gorm.Open(sqlite.Open(dsn), gormConfig())
}

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Game{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Idempotency{},
	)
}

// Ping checks connectivity of the underlying pool.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
