package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/repository"
)

// storeTimeLayout is the text form created_date is persisted in. Second
// precision; listings sort on date(created_date), so only the calendar date
// acts as a sort key.
const storeTimeLayout = "2006-01-02 15:04:05"

const entryColumns = "id, content_type, event_type, created_date, data, project"

// TimelineRepository implements timeline.Repository for SQLite
type TimelineRepository struct {
	db *DB
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Add inserts a timeline entry. An existing row with the same ID yields
// repository.ErrDuplicateKey.
func (r *TimelineRepository) Add(ctx context.Context, entry *timeline.Entry) error {
	payload, err := timeline.EncodePayload(entry)
	if err != nil {
		return fmt.Errorf("failed to encode timeline payload: %w", err)
	}

	query := `
		INSERT INTO timeline_entry (id, content_type, event_type, created_date, data, project)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ContentType,
		entry.EventType.String(),
		entry.CreatedAt.Format(storeTimeLayout),
		string(payload),
		entry.ProjectID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateKey
		}
		return fmt.Errorf("failed to add timeline entry: %w", err)
	}

	return nil
}

// Get retrieves a timeline entry by ID
func (r *TimelineRepository) Get(ctx context.Context, id int) (*timeline.Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM timeline_entry WHERE id = ?", entryColumns)

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline entry: %w", err)
	}

	return entry, nil
}

// List returns entries in the requested order. Ordering on created_date
// compares calendar dates only.
func (r *TimelineRepository) List(ctx context.Context, opts repository.ListEntriesOptions) ([]timeline.Entry, error) {
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM timeline_entry ORDER BY %s %s",
		entryColumns, entryOrderColumn(opts.OrderBy), direction)

	var args []any
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByProject returns a project's entries, newest calendar date first.
// A limit of zero means no limit.
func (r *TimelineRepository) ListByProject(ctx context.Context, projectID, limit int) ([]timeline.Entry, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM timeline_entry WHERE project = ? ORDER BY date(created_date) DESC",
		entryColumns)

	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline entries by project: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Update rewrites an entry's fields, reporting whether a row was affected.
func (r *TimelineRepository) Update(ctx context.Context, entry *timeline.Entry) (bool, error) {
	payload, err := timeline.EncodePayload(entry)
	if err != nil {
		return false, fmt.Errorf("failed to encode timeline payload: %w", err)
	}

	query := `
		UPDATE timeline_entry
		SET content_type = ?, event_type = ?, created_date = ?, data = ?, project = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.ContentType,
		entry.EventType.String(),
		entry.CreatedAt.Format(storeTimeLayout),
		string(payload),
		entry.ProjectID,
		entry.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update timeline entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Upsert tries an update first and inserts only when no row was affected.
func (r *TimelineRepository) Upsert(ctx context.Context, entry *timeline.Entry) (bool, error) {
	updated, err := r.Update(ctx, entry)
	if err != nil {
		return false, err
	}
	if updated {
		return true, nil
	}

	if err := r.Add(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// The row appeared between the update and the insert.
			return r.Update(ctx, entry)
		}
		return false, err
	}

	return true, nil
}

// Delete removes an entry, returning the number of rows affected.
func (r *TimelineRepository) Delete(ctx context.Context, id int) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM timeline_entry WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete timeline entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

func entryOrderColumn(order repository.EntryOrder) string {
	switch order {
	case repository.OrderEntriesByCreatedDate:
		return "date(created_date)"
	case repository.OrderEntriesByEventType:
		return "event_type"
	}
	return "id"
}

func scanEntry(row rowScanner) (*timeline.Entry, error) {
	var (
		entry        timeline.Entry
		eventTypeRaw string
		createdRaw   string
		payload      string
	)

	err := row.Scan(&entry.ID, &entry.ContentType, &eventTypeRaw, &createdRaw, &payload, &entry.ProjectID)
	if err != nil {
		return nil, err
	}

	eventType, err := timeline.ParseEventType(eventTypeRaw)
	if err != nil {
		return nil, fmt.Errorf("stored entry %d: %w", entry.ID, err)
	}
	entry.EventType = eventType

	createdAt, err := time.Parse(storeTimeLayout, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("stored entry %d: parsing created date: %w", entry.ID, err)
	}
	entry.CreatedAt = createdAt

	actor, event, err := timeline.DecodePayload([]byte(payload), eventType)
	if err != nil {
		return nil, fmt.Errorf("stored entry %d: %w", entry.ID, err)
	}
	entry.Actor = actor
	entry.Event = event

	return &entry, nil
}

func collectEntries(rows *sql.Rows) ([]timeline.Entry, error) {
	var entries []timeline.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline rows: %w", err)
	}

	return entries, nil
}
