package gormdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/raywall/xrest/pkg/config"
)

const (
	connectionTimeout = 5 * time.Second
	connMaxIdleTime   = 30 * time.Minute
)

type txKey struct{}

// DB wraps a gorm connection and carries transactions through contexts.
type DB struct {
	gorm   *gorm.DB
	sql    *sql.DB
	driver string
}

// Open connects to the database described by cfg and verifies it with a ping.
func Open(cfg config.DatabaseConf, log zerolog.Logger) (*DB, error) {
	gcfg := &gorm.Config{Logger: NewLogger(log), TranslateError: true}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		gdb, err = gorm.Open(sqlite.Open(cfg.DSN), gcfg)
	case "postgres":
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("gormdb: opening postgres: %w", err)
		}
		gdb, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
	default:
		return nil, fmt.Errorf("gormdb: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("gormdb: opening %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gormdb: underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite only supports one writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	db := &DB{gorm: gdb, sql: sqlDB, driver: cfg.Driver}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("gormdb: verifying connection: %w", err)
	}

	return db, nil
}

// MemoryDSN returns a shared-cache in-memory SQLite DSN private to name.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
}

// Driver returns the configured driver name.
func (d *DB) Driver() string {
	return d.driver
}

// Conn returns the transaction active in ctx, or the root connection.
func (d *DB) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.gorm.WithContext(ctx)
}

// Atomic runs fn inside a transaction. Within an active transaction it
// opens a savepoint instead.
func (d *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.Conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Migrate creates or updates the tables of the given models.
func (d *DB) Migrate(models ...any) error {
	if err := d.gorm.AutoMigrate(models...); err != nil {
		return fmt.Errorf("gormdb: migrate: %w", err)
	}
	return nil
}

// HealthCheck verifies the database is reachable.
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.sql.Close()
}
