package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/repository"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Get(ctx context.Context, id int) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	args := m.Called(ctx, name)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Search(ctx context.Context, name string) ([]project.Project, error) {
	args := m.Called(ctx, name)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, opts repository.ListProjectsOptions) ([]project.Project, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Add(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) (bool, error) {
	args := m.Called(ctx, proj)
	return args.Bool(0), args.Error(1)
}

func (m *ProjectRepository) Upsert(ctx context.Context, proj *project.Project) (bool, error) {
	args := m.Called(ctx, proj)
	return args.Bool(0), args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, id int) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// TimelineRepository is a mock for timeline.Repository.
type TimelineRepository struct {
	mock.Mock
}

func (m *TimelineRepository) Get(ctx context.Context, id int) (*timeline.Entry, error) {
	args := m.Called(ctx, id)
	if entry, ok := args.Get(0).(*timeline.Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) List(ctx context.Context, opts repository.ListEntriesOptions) ([]timeline.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]timeline.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) ListByProject(ctx context.Context, projectID, limit int) ([]timeline.Entry, error) {
	args := m.Called(ctx, projectID, limit)
	if list, ok := args.Get(0).([]timeline.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TimelineRepository) Add(ctx context.Context, entry *timeline.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *TimelineRepository) Update(ctx context.Context, entry *timeline.Entry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *TimelineRepository) Upsert(ctx context.Context, entry *timeline.Entry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *TimelineRepository) Delete(ctx context.Context, id int) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// Preferences is a mock for session.Preferences.
type Preferences struct {
	mock.Mock
}

func (m *Preferences) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *Preferences) Put(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Preferences) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
