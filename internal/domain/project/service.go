package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianberg/taigasync/internal/metrics"
	"github.com/brianberg/taigasync/internal/remote"
	"github.com/brianberg/taigasync/internal/repository"
)

// Service reconciles remotely fetched projects into the local store. Sync is
// strictly pull-and-merge: local rows are never pushed upstream and a
// successful fetch always wins over cached state.
type Service struct {
	remote  Remote
	repo    Repository
	logger  *slog.Logger
	onError func(error)
}

// Option configures a Service.
type Option func(*Service)

// WithErrorHandler installs a callback invoked synchronously whenever a
// remote failure is swallowed in favor of cached data.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Service) {
		s.onError = fn
	}
}

// NewService creates a new project service.
func NewService(rem Remote, repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{remote: rem, repo: repo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync fetches the member's projects, upserts each into the local store, and
// returns the remote view. On a recoverable remote failure it reports the
// error once and returns whatever the store already holds, unchanged.
func (s *Service) Sync(ctx context.Context, memberID int) ([]Project, error) {
	fetched, err := s.remote.ListProjects(ctx, memberID)
	if err != nil {
		if remote.Recoverable(err) {
			s.report("project sync falling back to cache", err)
			return s.List(ctx, repository.ListProjectsOptions{
				OrderBy:   repository.OrderProjectsByName,
				Ascending: true,
			})
		}
		return nil, fmt.Errorf("listing remote projects: %w", err)
	}

	for i := range fetched {
		if _, err := s.repo.Upsert(ctx, &fetched[i]); err != nil {
			return nil, fmt.Errorf("upserting project %d: %w", fetched[i].ID, err)
		}
		metrics.IncrementUpsert("project")
	}

	return fetched, nil
}

// SyncProject fetches a single project and upserts it. A recoverable remote
// failure falls back to the cached row; a remote 404 does not.
func (s *Service) SyncProject(ctx context.Context, projectID int) (*Project, error) {
	fetched, err := s.remote.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		if remote.Recoverable(err) {
			s.report("project fetch falling back to cache", err)
			return s.Get(ctx, projectID)
		}
		return nil, fmt.Errorf("getting remote project %d: %w", projectID, err)
	}

	if _, err := s.repo.Upsert(ctx, fetched); err != nil {
		return nil, fmt.Errorf("upserting project %d: %w", projectID, err)
	}
	metrics.IncrementUpsert("project")

	return fetched, nil
}

// Get returns a cached project by ID.
func (s *Service) Get(ctx context.Context, id int) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// GetByName returns a cached project by exact name. When several rows share
// the name, which one is returned is unspecified.
func (s *Service) GetByName(ctx context.Context, name string) (*Project, error) {
	proj, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project by name: %w", err)
	}
	return proj, nil
}

// Search returns cached projects whose names contain the given fragment.
func (s *Service) Search(ctx context.Context, name string) ([]Project, error) {
	return s.repo.Search(ctx, name)
}

// List returns cached projects without touching the network.
func (s *Service) List(ctx context.Context, opts repository.ListProjectsOptions) ([]Project, error) {
	return s.repo.List(ctx, opts)
}

func (s *Service) report(msg string, err error) {
	s.logger.Warn(msg, "error", err)
	metrics.IncrementFallback("project")
	if s.onError != nil {
		s.onError(err)
	}
}
