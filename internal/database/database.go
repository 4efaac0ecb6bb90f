// Package database wraps a pgx connection pool with the lifecycle,
// health reporting, and migration plumbing the service needs. Repositories
// depend on the narrow DBTX interface rather than on *DB directly, so they
// run unchanged against the pool, a transaction, or a pgxmock pool in tests.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/config"
)

// healthPingTimeout bounds the liveness ping issued by Health so a stalled
// database cannot hang the health endpoint.
const healthPingTimeout = 5 * time.Second

// DBTX is the query surface repositories depend on. Both *DB and pgx.Tx
// satisfy it, as does pgxmock's pool, which keeps repository unit tests
// free of a live database.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// HealthStatus is a point-in-time snapshot of database health. Status is
// "healthy" when a bounded ping succeeds and "unhealthy" otherwise, with
// Error carrying the ping failure. The connection counters come from the
// pool and are informational.
type HealthStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	OpenConns    int32  `json:"open_conns"`
	BusyConns    int32  `json:"busy_conns"`
	IdleConns    int32  `json:"idle_conns"`
	PendingConns int32  `json:"pending_conns"`
	MaxConns     int32  `json:"max_conns"`
}

// DB owns the pgx connection pool for the service.
type DB struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ DBTX = (*DB)(nil)

// New opens a connection pool for cfg and verifies it with a ping before
// returning. The pool is sized and aged from the config rather than pgx
// defaults.
func New(ctx context.Context, cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	applyPoolSettings(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Msg("database pool ready")

	return &DB{pool: pool, logger: logger}, nil
}

func applyPoolSettings(poolCfg *pgxpool.Config, cfg *config.DatabaseConfig) {
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
}

// Close releases the pool. Safe to call on a DB that never connected.
func (db *DB) Close() {
	if db.pool == nil {
		return
	}
	db.pool.Close()
	db.logger.Info().Msg("database pool closed")
}

// Ping verifies a connection can be acquired and the server answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health pings the database with a bounded timeout and reports the result
// together with the current pool counters.
func (db *DB) Health(ctx context.Context) HealthStatus {
	stat := db.pool.Stat()
	status := HealthStatus{
		OpenConns:    stat.TotalConns(),
		BusyConns:    stat.AcquiredConns(),
		IdleConns:    stat.IdleConns(),
		PendingConns: stat.ConstructingConns(),
		MaxConns:     stat.MaxConns(),
	}

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := db.pool.Ping(pingCtx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}
	status.Status = "healthy"
	return status
}

// WithTransaction runs fn inside a transaction. The transaction commits
// when fn returns nil and rolls back when fn returns an error or panics.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, db.pool, fn)
}

// Exec implements DBTX against the pool.
func (db *DB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.pool.Exec(ctx, sql, args...)
}

// Query implements DBTX against the pool.
func (db *DB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}

// QueryRow implements DBTX against the pool.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}
