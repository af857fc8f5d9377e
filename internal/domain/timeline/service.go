package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianberg/taigasync/internal/metrics"
	"github.com/brianberg/taigasync/internal/remote"
	"github.com/brianberg/taigasync/internal/repository"
)

// Service reconciles remotely fetched timeline entries into the local store.
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

// NewService creates a new timeline service.
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

// Sync fetches the project's timeline, upserts every entry, and returns the
// remote view. Each upsert is an independent single-row operation; a failure
// partway through leaves a partially updated cache, which the next
// successful sync overwrites. On a recoverable remote failure the cached
// entries are returned unchanged.
func (s *Service) Sync(ctx context.Context, projectID int) ([]Entry, error) {
	fetched, err := s.remote.ProjectTimeline(ctx, projectID)
	if err != nil {
		if remote.Recoverable(err) {
			s.report("timeline sync falling back to cache", projectID, err)
			return s.repo.ListByProject(ctx, projectID, 0)
		}
		return nil, fmt.Errorf("fetching timeline for project %d: %w", projectID, err)
	}

	for i := range fetched {
		if _, err := s.repo.Upsert(ctx, &fetched[i]); err != nil {
			return nil, fmt.Errorf("upserting timeline entry %d: %w", fetched[i].ID, err)
		}
		metrics.IncrementUpsert("timeline_entry")
	}

	return fetched, nil
}

// Get returns a cached entry by ID.
func (s *Service) Get(ctx context.Context, id int) (*Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("getting timeline entry: %w", err)
	}
	return entry, nil
}

// Recent returns cached entries for a project, newest calendar date first.
// A limit of zero means no limit.
func (s *Service) Recent(ctx context.Context, projectID, limit int) ([]Entry, error) {
	return s.repo.ListByProject(ctx, projectID, limit)
}

// List returns cached entries without touching the network.
func (s *Service) List(ctx context.Context, opts repository.ListEntriesOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}

func (s *Service) report(msg string, projectID int, err error) {
	s.logger.Warn(msg, "project_id", projectID, "error", err)
	metrics.IncrementFallback("timeline_entry")
	if s.onError != nil {
		s.onError(err)
	}
}
