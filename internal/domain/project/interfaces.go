package project

import (
	"context"

	"github.com/brianberg/taigasync/internal/repository"
)

// Repository provides persistence for projects.
type Repository interface {
	Get(ctx context.Context, id int) (*Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
	Search(ctx context.Context, name string) ([]Project, error)
	List(ctx context.Context, opts repository.ListProjectsOptions) ([]Project, error)
	Add(ctx context.Context, proj *Project) error
	Update(ctx context.Context, proj *Project) (bool, error)
	Upsert(ctx context.Context, proj *Project) (bool, error)
	Delete(ctx context.Context, id int) (int64, error)
}

// Remote fetches the authoritative project collection.
type Remote interface {
	ListProjects(ctx context.Context, memberID int) ([]Project, error)
	GetProject(ctx context.Context, projectID int) (*Project, error)
}
