package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// migrationsTable records applied versions in the target database.
const migrationsTable = "schema_migrations"

// Migrator applies SQL migrations from a directory of versioned files.
// It borrows connections from the service pool through a database/sql
// adapter, so it must be closed to return them.
type Migrator struct {
	m      *migrate.Migrate
	bridge *sql.DB
	logger zerolog.Logger
}

// NewMigrator builds a Migrator reading migration files from dir.
// The directory must exist; a typo'd path fails here instead of surfacing
// as an empty migration run.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	switch {
	case db == nil:
		return nil, errors.New("database is required")
	case db.pool == nil:
		return nil, errors.New("database pool not initialized")
	case dir == "":
		return nil, errors.New("migrations path is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations path validation failed: %w", err)
	}

	bridge := stdlib.OpenDBFromPool(db.pool)
	driver, err := postgres.WithInstance(bridge, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		bridge.Close()
		return nil, fmt.Errorf("create postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		bridge.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m, bridge: bridge, logger: logger}, nil
}

// Up applies every pending migration. A database already at the latest
// version is not an error.
func (mg *Migrator) Up() error {
	mg.logger.Info().Msg("applying pending migrations")
	if err := mg.m.Up(); err != nil {
		return mg.settle(err, "apply migrations")
	}
	mg.logger.Info().Msg("migrations applied")
	return nil
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	mg.logger.Warn().Msg("rolling back all migrations")
	if err := mg.m.Down(); err != nil {
		return mg.settle(err, "roll back migrations")
	}
	mg.logger.Info().Msg("migrations rolled back")
	return nil
}

// Steps moves the schema n versions forward (n > 0) or backward (n < 0).
func (mg *Migrator) Steps(n int) error {
	mg.logger.Info().Int("steps", n).Msg("stepping migrations")
	if err := mg.m.Steps(n); err != nil {
		// Stepping past the newest file surfaces as a missing-file error.
		if errors.Is(err, os.ErrNotExist) {
			mg.logger.Info().Msg("already at the newest migration")
			return nil
		}
		return mg.settle(err, "step migrations")
	}
	return nil
}

// Version reports the current schema version and whether a previous run
// left it dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.m.Version()
}

// Force overwrites the recorded schema version without running any
// migration. Used to recover after a failed run left the version dirty.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing schema version")
	return mg.m.Force(version)
}

// Close releases the migration source and returns the borrowed
// connections to the pool.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	var bridgeErr error
	if mg.bridge != nil {
		bridgeErr = mg.bridge.Close()
	}
	return errors.Join(srcErr, dbErr, bridgeErr)
}

// settle maps migrate.ErrNoChange to success and wraps everything else.
func (mg *Migrator) settle(err error, action string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info().Msg("schema already up to date")
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}
