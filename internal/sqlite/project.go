package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/repository"
)

const projectColumns = "id, name, description, tags, logo_small, logo_big, private"

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Add inserts a project. An existing row with the same ID yields
// repository.ErrDuplicateKey.
func (r *ProjectRepository) Add(ctx context.Context, proj *project.Project) error {
	tags, err := encodeTags(proj.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode project tags: %w", err)
	}

	query := `
		INSERT INTO project (id, name, description, tags, logo_small, logo_big, private)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Description,
		tags,
		proj.LogoSmallURL,
		proj.LogoBigURL,
		boolToInt(proj.IsPrivate),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateKey
		}
		return fmt.Errorf("failed to add project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id int) (*project.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM project WHERE id = ?", projectColumns)

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return proj, nil
}

// GetByName retrieves a project by exact name. When several rows share the
// name, which row is returned is unspecified.
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM project WHERE name = ? LIMIT 1", projectColumns)

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by name: %w", err)
	}

	return proj, nil
}

// Search returns projects whose names contain the fragment, ordered by name.
func (r *ProjectRepository) Search(ctx context.Context, name string) ([]project.Project, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM project WHERE name LIKE ? ORDER BY name ASC", projectColumns)

	rows, err := r.db.QueryContext(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// List returns all projects in the requested order.
func (r *ProjectRepository) List(ctx context.Context, opts repository.ListProjectsOptions) ([]project.Project, error) {
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM project ORDER BY %s %s",
		projectColumns, projectOrderColumn(opts.OrderBy), direction)

	var args []any
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// Update rewrites a project's fields, reporting whether a row was affected.
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) (bool, error) {
	tags, err := encodeTags(proj.Tags)
	if err != nil {
		return false, fmt.Errorf("failed to encode project tags: %w", err)
	}

	query := `
		UPDATE project
		SET name = ?, description = ?, tags = ?, logo_small = ?, logo_big = ?, private = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Name,
		proj.Description,
		tags,
		proj.LogoSmallURL,
		proj.LogoBigURL,
		boolToInt(proj.IsPrivate),
		proj.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Upsert tries an update first and inserts only when no row was affected.
// This order means a record already cached from a previous fetch is
// replaced rather than treated as a hard not-found or duplicate error.
func (r *ProjectRepository) Upsert(ctx context.Context, proj *project.Project) (bool, error) {
	updated, err := r.Update(ctx, proj)
	if err != nil {
		return false, err
	}
	if updated {
		return true, nil
	}

	if err := r.Add(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// The row appeared between the update and the insert.
			return r.Update(ctx, proj)
		}
		return false, err
	}

	return true, nil
}

// Delete removes a project, returning the number of rows affected.
func (r *ProjectRepository) Delete(ctx context.Context, id int) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM project WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

func projectOrderColumn(order repository.ProjectOrder) string {
	switch order {
	case repository.OrderProjectsByName:
		return "name"
	case repository.OrderProjectsByDescription:
		return "description"
	case repository.OrderProjectsByPrivate:
		return "private"
	}
	return "id"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj        project.Project
		description sql.NullString
		tags        sql.NullString
		logoSmall   sql.NullString
		logoBig     sql.NullString
		private     int
	)

	err := row.Scan(&proj.ID, &proj.Name, &description, &tags, &logoSmall, &logoBig, &private)
	if err != nil {
		return nil, err
	}

	proj.Description = description.String
	proj.LogoSmallURL = logoSmall.String
	proj.LogoBigURL = logoBig.String
	proj.IsPrivate = private == 1

	if tags.Valid {
		decoded, err := decodeTags(tags.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decode project tags: %w", err)
		}
		proj.Tags = decoded
	}

	return &proj, nil
}

func collectProjects(rows *sql.Rows) ([]project.Project, error) {
	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// encodeTags serializes tags to a JSON text column, preserving order. Empty
// tag lists are stored as NULL.
func encodeTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
