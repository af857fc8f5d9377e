package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brianberg/taigasync/internal/repository"
)

// PreferenceRepository is a string key-value store backed by the preference
// table. It holds the serialized session, among other small blobs.
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the value stored under key.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM preference WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	return value, nil
}

// Put stores the value under key, replacing any previous value.
func (r *PreferenceRepository) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preference (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put preference %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM preference WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete preference %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
