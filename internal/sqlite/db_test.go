package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.Migrate(nil)
	require.NoError(t, err, "failed to migrate")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestMigrate(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{"project", "timeline_entry", "preference"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, schemaVersion, version)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec("INSERT INTO preference (key, value) VALUES ('k', 'v')")
	require.NoError(t, err)

	// A second migrate at the current version must not touch the data.
	require.NoError(t, db.Migrate(nil))

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM preference WHERE key = 'k'").Scan(&value))
	require.Equal(t, "v", value)
}

func TestMigrate_VersionMismatchDropsData(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec("INSERT INTO project (id, name, private) VALUES (1, 'Old', 0)")
	require.NoError(t, err)

	// Simulate a database written by a different schema version.
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(nil))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM project").Scan(&count))
	require.Equal(t, 0, count, "mismatched schema must be rebuilt empty")

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, schemaVersion, version)
}
