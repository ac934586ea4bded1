package remote_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matt-steen/project-board/pkg/api"
	"github.com/matt-steen/project-board/pkg/board"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/matt-steen/project-board/pkg/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "remote-key"

func newRemote(t *testing.T) (*remote.Client, *db.Database, string) {
	t.Helper()

	database, err := db.NewDatabase(context.Background(), t.TempDir()+"/remote.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	server := httptest.NewServer(api.New(database, apiKey, prometheus.NewRegistry()))
	t.Cleanup(server.Close)

	return remote.NewClient(server.URL+"/", apiKey, 5*time.Second), database, server.URL
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _, _ := newRemote(t)

	acme, err := client.CreateClient(ctx, db.Client{Name: "Acme"})
	require.NoError(t, err)

	created, err := client.CreateProject(ctx, db.Project{Name: "website", ClientID: acme.ID, Value: 800})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	projects, err := client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, acme.ID, projects[0].ClientID)

	clients, err := client.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)

	name := "landing page"
	updated, err := client.UpdateProject(ctx, created.ID, db.ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	require.NoError(t, client.MarkPaid(ctx, created.ID))
	require.NoError(t, client.DeleteProject(ctx, created.ID))

	projects, err = client.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestUpdateProjectStatusOnlyTouchesStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, database, _ := newRemote(t)

	project, err := database.CreateProject(ctx, db.Project{Name: "work", Description: "keep me", Value: 42})
	require.NoError(t, err)

	require.NoError(t, client.UpdateProjectStatus(ctx, project.ID, db.StatusDone))

	stored, err := database.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDone, stored.Status)
	assert.Equal(t, "keep me", stored.Description)
	assert.Equal(t, 42.0, stored.Value)
}

func TestStatusPatchBody(t *testing.T) {
	t.Parallel()

	var body string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		body = string(payload)

		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/projects/P1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "", time.Second)
	require.NoError(t, client.UpdateProjectStatus(context.Background(), "P1", db.StatusInProgress))
	assert.JSONEq(t, `{"status":"in_progress"}`, body)
}

func TestErrorResponses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _, url := newRemote(t)

	err := client.UpdateProjectStatus(ctx, "missing", db.StatusDone)

	var apiErr *remote.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	unauthorized := remote.NewClient(url, "wrong", time.Second)
	_, err = unauthorized.ListProjects(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestBoardOverRemoteStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, database, _ := newRemote(t)

	acme, err := database.CreateClient(ctx, db.Client{Name: "Acme"})
	require.NoError(t, err)

	project, err := database.CreateProject(ctx, db.Project{Name: "P1", ClientID: acme.ID})
	require.NoError(t, err)

	recorder := &board.Recorder{}
	controller := board.NewController(client, recorder)
	require.NoError(t, controller.Load(ctx))
	assert.Equal(t, "Acme", controller.State().ClientName(acme.ID))

	controller.DragStart(project.ID)
	assert.Equal(t, board.DropMoved, controller.OnDrop(ctx, project.ID, "done"))

	stored, err := database.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDone, stored.Status)

	require.NoError(t, database.DeleteProject(ctx, project.ID))

	assert.Equal(t, board.DropFailed, controller.OnDrop(ctx, project.ID, "todo"))

	local, ok := controller.State().Project(project.ID)
	require.True(t, ok)
	assert.Equal(t, db.StatusDone, local.Status)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, board.LevelError, last.Level)
}

func TestUnreachableStoreIsReadError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	controller := board.NewController(remote.NewClient(url, "", time.Second), nil)
	assert.ErrorIs(t, controller.Load(context.Background()), board.ErrRemoteRead)
}

func TestClientEditingAndTimers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, database, _ := newRemote(t)

	acme, err := client.CreateClient(ctx, db.Client{Name: "Acme"})
	require.NoError(t, err)

	acme.Email = "billing@acme.test"
	updated, err := client.UpdateClient(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.test", updated.Email)

	fetched, err := client.GetClient(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.test", fetched.Email)

	project, err := database.CreateProject(ctx, db.Project{Name: "website"})
	require.NoError(t, err)

	entry, err := client.StartTimer(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, entry.ProjectID)

	_, err = client.StartTimer(ctx, project.ID)

	var apiErr *remote.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	entries, err := client.ListTimeEntries(ctx, 3)
	require.NoError(t, err)
	running, ok := db.RunningEntry(entries)
	require.True(t, ok)
	assert.Equal(t, entry.ID, running.ID)

	stopped, err := client.StopTimer(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, stopped.Running())
}
