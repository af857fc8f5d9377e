package timeline

import (
	"context"

	"github.com/brianberg/taigasync/internal/repository"
)

// Repository provides persistence for timeline entries.
type Repository interface {
	Get(ctx context.Context, id int) (*Entry, error)
	List(ctx context.Context, opts repository.ListEntriesOptions) ([]Entry, error)
	ListByProject(ctx context.Context, projectID, limit int) ([]Entry, error)
	Add(ctx context.Context, entry *Entry) error
	Update(ctx context.Context, entry *Entry) (bool, error)
	Upsert(ctx context.Context, entry *Entry) (bool, error)
	Delete(ctx context.Context, id int) (int64, error)
}

// Remote fetches the authoritative timeline for a project.
type Remote interface {
	ProjectTimeline(ctx context.Context, projectID int) ([]Entry, error)
}
