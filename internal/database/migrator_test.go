package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigratorValidation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("nil database", func(t *testing.T) {
		mg, err := NewMigrator(nil, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, mg)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("database without a pool", func(t *testing.T) {
		mg, err := NewMigrator(&DB{}, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, mg)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})
}

func TestNewMigratorPathChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := dialTestDatabase(t)
	defer db.Close()

	logger := zerolog.Nop()

	t.Run("empty path", func(t *testing.T) {
		mg, err := NewMigrator(db, "", logger)
		require.Error(t, err)
		assert.Nil(t, mg)
		assert.Contains(t, err.Error(), "migrations path is required")
	})

	t.Run("missing directory", func(t *testing.T) {
		mg, err := NewMigrator(db, "/nonexistent/migrations", logger)
		require.Error(t, err)
		assert.Nil(t, mg)
		assert.Contains(t, err.Error(), "migrations path validation failed")
	})

	t.Run("valid directory", func(t *testing.T) {
		mg, err := NewMigrator(db, migrationsDir(t), logger)
		require.NoError(t, err)
		require.NotNil(t, mg)
		assert.NoError(t, mg.Close())
	})
}

func TestMigratorLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := dialTestDatabase(t)
	defer db.Close()

	mg, err := NewMigrator(db, migrationsDir(t), zerolog.Nop())
	require.NoError(t, err)
	defer mg.Close()

	t.Run("up is idempotent", func(t *testing.T) {
		// First call applies everything on a fresh schema; the second
		// sees ErrNoChange, which Up maps to success.
		require.NoError(t, mg.Up())
		assert.NoError(t, mg.Up())
	})

	t.Run("version reflects the applied schema", func(t *testing.T) {
		version, dirty, err := mg.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Greater(t, version, uint(0))
	})

	t.Run("stepping past the newest file is a no-op", func(t *testing.T) {
		assert.NoError(t, mg.Steps(1))
	})

	t.Run("force re-records the current version", func(t *testing.T) {
		version, _, err := mg.Version()
		require.NoError(t, err)
		assert.NoError(t, mg.Force(int(version)))
	})
}

// migrationsDir locates the repository's migrations directory relative to
// this package, skipping the test when it is absent.
func migrationsDir(t *testing.T) string {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	dir := filepath.Join(cwd, "..", "..", "migrations")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skipf("skipping: migrations directory not found at %s", dir)
	}
	return dir
}
