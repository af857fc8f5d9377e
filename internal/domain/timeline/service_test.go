package timeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/remote"
	"github.com/brianberg/taigasync/internal/repository"
	"github.com/brianberg/taigasync/internal/repository/mocks"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ProjectTimeline(ctx context.Context, projectID int) ([]timeline.Entry, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]timeline.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func entryFixture(id int) timeline.Entry {
	return timeline.Entry{
		ID:          id,
		ContentType: 14,
		EventType:   timeline.EventType{Subject: timeline.SubjectTask, Action: timeline.ActionCreate},
		CreatedAt:   time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Actor:       timeline.Member{ID: 5, Name: "Alice"},
		Event:       timeline.TaskEvent{Task: timeline.Item{ID: 9, Subject: "Fix bug", Ref: 42}},
		ProjectID:   100,
	}
}

func TestService_Sync(t *testing.T) {
	rem := new(mockRemote)
	repo := new(mocks.TimelineRepository)
	svc := timeline.NewService(rem, repo, nil)

	fetched := []timeline.Entry{entryFixture(1), entryFixture(2)}
	rem.On("ProjectTimeline", mock.Anything, 100).Return(fetched, nil)
	repo.On("Upsert", mock.Anything, &fetched[0]).Return(true, nil)
	repo.On("Upsert", mock.Anything, &fetched[1]).Return(true, nil)

	result, err := svc.Sync(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, fetched, result)

	rem.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_SyncFallsBackOnTransportError(t *testing.T) {
	rem := new(mockRemote)
	repo := new(mocks.TimelineRepository)

	var reported []error
	svc := timeline.NewService(rem, repo, nil,
		timeline.WithErrorHandler(func(err error) { reported = append(reported, err) }))

	cached := []timeline.Entry{entryFixture(1)}
	rem.On("ProjectTimeline", mock.Anything, 100).Return(nil, remote.ErrTransport)
	repo.On("ListByProject", mock.Anything, 100, 0).Return(cached, nil)

	result, err := svc.Sync(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, cached, result)

	require.Len(t, reported, 1)
	require.ErrorIs(t, reported[0], remote.ErrTransport)

	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_SyncPropagatesStorageError(t *testing.T) {
	rem := new(mockRemote)
	repo := new(mocks.TimelineRepository)
	svc := timeline.NewService(rem, repo, nil)

	fetched := []timeline.Entry{entryFixture(1)}
	rem.On("ProjectTimeline", mock.Anything, 100).Return(fetched, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(false, repository.ErrStorageUnavailable)

	_, err := svc.Sync(context.Background(), 100)
	require.ErrorIs(t, err, repository.ErrStorageUnavailable)

	repo.AssertNotCalled(t, "ListByProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Get(t *testing.T) {
	rem := new(mockRemote)
	repo := new(mocks.TimelineRepository)
	svc := timeline.NewService(rem, repo, nil)

	entry := entryFixture(1)
	repo.On("Get", mock.Anything, 1).Return(&entry, nil)
	repo.On("Get", mock.Anything, 2).Return(nil, repository.ErrNotFound)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, &entry, got)

	_, err = svc.Get(context.Background(), 2)
	require.ErrorIs(t, err, timeline.ErrEntryNotFound)
}

func TestService_Recent(t *testing.T) {
	rem := new(mockRemote)
	repo := new(mocks.TimelineRepository)
	svc := timeline.NewService(rem, repo, nil)

	cached := []timeline.Entry{entryFixture(2), entryFixture(1)}
	repo.On("ListByProject", mock.Anything, 100, 2).Return(cached, nil)

	result, err := svc.Recent(context.Background(), 100, 2)
	require.NoError(t, err)
	require.Equal(t, cached, result)
}
