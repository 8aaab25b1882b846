package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goliatone/go-leave-auth/config"
	"github.com/goliatone/go-leave-auth/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/extra/bunotel"
)

const dbName = "authd"

// OpenDB opens the configured store and installs the tracing hook, plus the
// query log when Debug is set.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	var db *bun.DB

	switch cfg.Dialect {
	case config.DialectSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one writer; sqlite serializes anyway
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())

		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}

	case config.DialectPostgres:
		sqldb, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		db = bun.NewDB(sqldb, pgdialect.New())

	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}

	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(dbName)))
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect, err)
	}

	return db, nil
}

// Migrate applies the embedded migrations for dialect.
func Migrate(ctx context.Context, db *bun.DB, dialect string) error {
	return migrations.Up(ctx, db.DB, dialect)
}

// SchemaVersion reports the applied migration version.
func SchemaVersion(ctx context.Context, db *bun.DB, dialect string) (int64, error) {
	return migrations.Version(ctx, db.DB, dialect)
}
