package board_test

import (
	"context"
	"errors"
	"sync"

	"github.com/matt-steen/project-board/pkg/db"
)

var errUnavailable = errors.New("service unavailable")

type statusUpdate struct {
	id     string
	status db.Status
}

// fakeStore is an in-memory project store whose calls can be made to fail or block.
type fakeStore struct {
	mu        sync.Mutex
	projects  []db.Project
	clients   []db.Client
	readErr   error
	clientErr error
	writeErr  error
	updates   []statusUpdate
	// gate, when set, blocks UpdateProjectStatus until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore(projects ...db.Project) *fakeStore {
	return &fakeStore{
		projects: projects,
		clients:  []db.Client{{ID: "c1", Name: "Acme"}},
	}
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]db.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return nil, f.readErr
	}

	out := make([]db.Project, len(f.projects))
	copy(out, f.projects)

	return out, nil
}

func (f *fakeStore) ListClients(ctx context.Context) ([]db.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clientErr != nil {
		return nil, f.clientErr
	}

	out := make([]db.Client, len(f.clients))
	copy(out, f.clients)

	return out, nil
}

func (f *fakeStore) UpdateProjectStatus(ctx context.Context, id string, status db.Status) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.updates = append(f.updates, statusUpdate{id: id, status: status})
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}

	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Status = status

			return nil
		}
	}

	return db.ErrNotFound
}

func (f *fakeStore) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writeErr = err
}

func (f *fakeStore) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readErr = err
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.updates)
}

func project(id string, status db.Status) db.Project {
	return db.Project{ID: id, Name: "project " + id, Status: status, ClientID: "c1", Value: 100}
}
