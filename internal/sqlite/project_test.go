package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/repository"
)

func testProject(id int, name string) *project.Project {
	return &project.Project{
		ID:           id,
		Name:         name,
		Description:  "A test project",
		Tags:         []string{"go", "sync"},
		LogoSmallURL: "https://example.org/small.png",
		LogoBigURL:   "https://example.org/big.png",
		IsPrivate:    false,
	}
}

func TestProjectRepository_AddAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(1, "Test Project")
	require.NoError(t, repo.Add(ctx, proj))

	retrieved, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, proj, retrieved)

	_, err = repo.Get(ctx, 42)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_AddDuplicateKey(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(1, "First")))
	err := repo.Add(ctx, testProject(1, "Second"))
	require.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestProjectRepository_TagsRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(1, "Tagged")
	proj.Tags = []string{"a", "b", "c"}
	require.NoError(t, repo.Add(ctx, proj))

	retrieved, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, retrieved.Tags)

	// Absent tags stay absent.
	bare := testProject(2, "Bare")
	bare.Tags = nil
	require.NoError(t, repo.Add(ctx, bare))

	retrieved, err = repo.Get(ctx, 2)
	require.NoError(t, err)
	require.Nil(t, retrieved.Tags)
}

func TestProjectRepository_UpdateMissingRow(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	updated, err := repo.Update(ctx, testProject(1, "Ghost"))
	require.NoError(t, err)
	require.False(t, updated)
}

func TestProjectRepository_UpsertInsertsThenUpdates(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	// Insert fallback: the row does not exist yet.
	proj := testProject(1, "Alpha")
	ok, err := repo.Upsert(ctx, proj)
	require.NoError(t, err)
	require.True(t, ok)

	retrieved, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Alpha", retrieved.Name)

	// Update precedence: the same ID with new values replaces the row.
	proj.Name = "Alpha2"
	proj.IsPrivate = true
	ok, err = repo.Upsert(ctx, proj)
	require.NoError(t, err)
	require.True(t, ok)

	retrieved, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Alpha2", retrieved.Name)
	require.True(t, retrieved.IsPrivate)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM project").Scan(&count))
	require.Equal(t, 1, count, "upsert must not create duplicate rows")
}

func TestProjectRepository_UpsertIdempotent(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject(1, "Stable")
	for i := 0; i < 2; i++ {
		ok, err := repo.Upsert(ctx, proj)
		require.NoError(t, err)
		require.True(t, ok)
	}

	retrieved, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, proj, retrieved)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM project").Scan(&count))
	require.Equal(t, 1, count)
}

func TestProjectRepository_ListOrdering(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(3, "Charlie")))
	require.NoError(t, repo.Add(ctx, testProject(1, "Bravo")))
	require.NoError(t, repo.Add(ctx, testProject(2, "Alpha")))

	byName, err := repo.List(ctx, repository.ListProjectsOptions{
		OrderBy:   repository.OrderProjectsByName,
		Ascending: true,
	})
	require.NoError(t, err)
	require.Len(t, byName, 3)
	require.Equal(t, "Alpha", byName[0].Name)
	require.Equal(t, "Bravo", byName[1].Name)
	require.Equal(t, "Charlie", byName[2].Name)

	byID, err := repo.List(ctx, repository.ListProjectsOptions{
		OrderBy: repository.OrderProjectsByID,
	})
	require.NoError(t, err)
	require.Equal(t, 3, byID[0].ID)
	require.Equal(t, 1, byID[2].ID)

	limited, err := repo.List(ctx, repository.ListProjectsOptions{
		OrderBy:   repository.OrderProjectsByName,
		Ascending: true,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestProjectRepository_GetByName(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(1, "Unique")))

	retrieved, err := repo.GetByName(ctx, "Unique")
	require.NoError(t, err)
	require.Equal(t, 1, retrieved.ID)

	_, err = repo.GetByName(ctx, "Missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_GetByNameTieBreak(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(1, "Shared")))
	require.NoError(t, repo.Add(ctx, testProject(2, "Shared")))

	// With duplicate names any one matching row may come back; only the
	// name is guaranteed.
	retrieved, err := repo.GetByName(ctx, "Shared")
	require.NoError(t, err)
	require.Equal(t, "Shared", retrieved.Name)
	require.Contains(t, []int{1, 2}, retrieved.ID)
}

func TestProjectRepository_Search(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(1, "Backend API")))
	require.NoError(t, repo.Add(ctx, testProject(2, "Mobile App")))
	require.NoError(t, repo.Add(ctx, testProject(3, "API Gateway")))

	results, err := repo.Search(ctx, "API")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "API Gateway", results[0].Name)
	require.Equal(t, "Backend API", results[1].Name)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testProject(1, "Doomed")))

	affected, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	affected, err = repo.Delete(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), affected)
}
