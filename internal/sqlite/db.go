package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/brianberg/taigasync/internal/repository"
)

// schemaVersion is stamped into PRAGMA user_version. There are no
// incremental migrations; a mismatch drops and recreates every table.
const schemaVersion = 1

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New opens the cache database. Open failures are storage-unavailable;
// retrying the open is the only recovery.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}
	return &DB{db}, nil
}

const schema = `
-- Cached Taiga projects, keyed by server-assigned ID
CREATE TABLE project (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    tags TEXT,
    logo_small TEXT,
    logo_big TEXT,
    private INTEGER NOT NULL
);

-- Cached timeline entries; data holds the serialized event payload
CREATE TABLE timeline_entry (
    id INTEGER PRIMARY KEY,
    content_type INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    created_date TEXT NOT NULL,
    data TEXT NOT NULL,
    project INTEGER NOT NULL,
    FOREIGN KEY (project) REFERENCES project(id)
);
CREATE INDEX idx_entry_project ON timeline_entry(project);
CREATE INDEX idx_entry_created ON timeline_entry(created_date);

-- String key-value preferences; holds the serialized session under "user"
CREATE TABLE preference (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migrate brings the schema to the current version. Any other version is
// dropped wholesale before recreating; the cache is rebuilt by the next
// sync, so losing it is acceptable.
func (db *DB) Migrate(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("%w: reading schema version: %v", repository.ErrStorageUnavailable, err)
	}
	if version == schemaVersion {
		return nil
	}

	if version != 0 {
		logger.Warn("schema version mismatch, dropping cached data",
			"have", version, "want", schemaVersion)
		drop := `
DROP TABLE IF EXISTS timeline_entry;
DROP TABLE IF EXISTS project;
DROP TABLE IF EXISTS preference;
`
		if _, err := db.Exec(drop); err != nil {
			return fmt.Errorf("%w: dropping stale schema: %v", repository.ErrStorageUnavailable, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("%w: creating schema: %v", repository.ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("%w: stamping schema version: %v", repository.ErrStorageUnavailable, err)
	}
	return nil
}
