package taiga_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/remote"
	"github.com/brianberg/taigasync/internal/session"
	"github.com/brianberg/taigasync/internal/taiga"
	"github.com/brianberg/taigasync/internal/taigatest"
)

// staticTokens is a TokenSource backed by a fixed string.
type staticTokens string

func (t staticTokens) Token() (string, bool) { return string(t), t != "" }

func newServer(t *testing.T) *taigatest.Server {
	return taigatest.New(t, "alice", "s3cret", session.User{
		ID:       5,
		Name:     "Alice Example",
		Email:    "alice@example.org",
		Active:   true,
		Timezone: "Europe/Madrid",
	})
}

func TestClient_SignIn(t *testing.T) {
	srv := newServer(t)
	client := taiga.NewClient(srv.URL, nil, nil)

	user, err := client.SignIn(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, 5, user.ID)
	require.Equal(t, "Alice Example", user.Name)
	require.NotEmpty(t, user.AuthToken)
}

func TestClient_SignInBadCredentials(t *testing.T) {
	srv := newServer(t)
	client := taiga.NewClient(srv.URL, nil, nil)

	_, err := client.SignIn(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, remote.ErrTransport)
	require.True(t, remote.Recoverable(err))
}

func TestClient_ListProjects(t *testing.T) {
	srv := newServer(t)
	srv.SetProjects(
		project.Project{ID: 1, Name: "Alpha", Tags: []string{"go"}},
		project.Project{ID: 2, Name: "Beta", IsPrivate: true},
	)

	client := taiga.NewClient(srv.URL, authenticate(t, srv), nil)

	projects, err := client.ListProjects(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "Alpha", projects[0].Name)
	require.Equal(t, []string{"go"}, projects[0].Tags)
	require.True(t, projects[1].IsPrivate)
}

func TestClient_RequestsRequireToken(t *testing.T) {
	srv := newServer(t)
	srv.SetProjects(project.Project{ID: 1, Name: "Alpha"})

	client := taiga.NewClient(srv.URL, nil, nil)

	_, err := client.ListProjects(context.Background(), 5)
	require.ErrorIs(t, err, remote.ErrTransport)
}

func TestClient_GetProject(t *testing.T) {
	srv := newServer(t)
	srv.SetProjects(project.Project{ID: 7, Name: "Gamma", Description: "desc"})

	client := taiga.NewClient(srv.URL, authenticate(t, srv), nil)

	proj, err := client.GetProject(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Gamma", proj.Name)

	_, err = client.GetProject(context.Background(), 99)
	require.ErrorIs(t, err, remote.ErrNotFound)
	require.False(t, remote.Recoverable(err))
}

func TestClient_ProjectTimeline(t *testing.T) {
	srv := newServer(t)
	entry := timeline.Entry{
		ID:          17,
		ContentType: 14,
		EventType:   timeline.EventType{Subject: timeline.SubjectTask, Action: timeline.ActionChange},
		CreatedAt:   time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Actor:       timeline.Member{ID: 5, Name: "Alice"},
		Event:       timeline.TaskEvent{Task: timeline.Item{ID: 9, Subject: "Fix bug", Ref: 42}},
		ProjectID:   100,
	}
	srv.SetTimeline(100, entry)

	client := taiga.NewClient(srv.URL, authenticate(t, srv), nil)

	entries, err := client.ProjectTimeline(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID, entries[0].ID)
	require.Equal(t, entry.EventType, entries[0].EventType)
	require.Equal(t, entry.Event, entries[0].Event)
	require.True(t, entry.CreatedAt.Equal(entries[0].CreatedAt))
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := newServer(t)
	tokens := authenticate(t, srv)
	srv.Close()

	client := taiga.NewClient(srv.URL, tokens, nil)

	_, err := client.ListProjects(context.Background(), 5)
	require.ErrorIs(t, err, remote.ErrTransport)
	require.True(t, remote.Recoverable(err))
}

func TestClient_MalformedResponse(t *testing.T) {
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"truncated":`))
	}))
	t.Cleanup(raw.Close)

	client := taiga.NewClient(raw.URL, staticTokens("token"), nil)

	_, err := client.ListProjects(context.Background(), 5)
	require.ErrorIs(t, err, remote.ErrMalformed)
	require.True(t, remote.Recoverable(err))
}

// authenticate signs in against the fake server and returns a token source
// holding the issued bearer token.
func authenticate(t *testing.T, srv *taigatest.Server) taiga.TokenSource {
	t.Helper()
	client := taiga.NewClient(srv.URL, nil, nil)
	user, err := client.SignIn(context.Background(), srv.Username, "s3cret")
	require.NoError(t, err)
	return staticTokens(user.AuthToken)
}
