package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Open creates a pgx pool and wraps it as *sql.DB, returning both.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "tender-agent"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	db := stdlib.OpenDBFromPool(pool)

	logger.Info("successfully connected to database")
	return db, pool, nil
}

// OpenSQLite opens an embedded SQLite database at path. Use ":memory:"
// for a throwaway instance. Single connection: the driver serializes
// writers anyway and one connection keeps in-memory databases coherent.
func OpenSQLite(path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	logger.Info("opened sqlite database", "path", path)
	return db, nil
}

// Close closes the database connections gracefully.
func Close(db *sql.DB, pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close sql db", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// Schema DDL, kept portable between Postgres and SQLite: TEXT columns
// for JSON payloads, $N placeholders everywhere.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS tender_records (
	id            TEXT PRIMARY KEY,
	tender_id     TEXT NOT NULL,
	id_state      TEXT NOT NULL,
	id_provenance TEXT NOT NULL,
	source_ref    TEXT NOT NULL,
	linked_refs   TEXT NOT NULL,
	fields        TEXT NOT NULL,
	refined       TEXT,
	candidates    TEXT NOT NULL,
	raw_text_ref  TEXT,
	degraded      TEXT NOT NULL,
	processed_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tender_records_tender_id ON tender_records (tender_id);
CREATE INDEX IF NOT EXISTS idx_tender_records_source_ref ON tender_records (source_ref);

CREATE TABLE IF NOT EXISTS tender_counters (
	year  INTEGER PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// Migrate applies the schema. Idempotent.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Info("applying database schema")
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		logger.Error("schema migration failed", "error", err)
		return err
	}
	return nil
}
