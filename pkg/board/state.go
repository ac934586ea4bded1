// Package board holds the kanban board: the cached project state, the drag session and the
// controller that turns drops into confirmed status changes.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matt-steen/project-board/pkg/db"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRemoteRead is returned when projects or clients could not be loaded from the store.
	ErrRemoteRead = errors.New("remote read failed")
	// ErrRemoteWrite is returned when the store rejected a status update.
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrInvalidDropTarget is returned when a drop target does not map to a column.
	ErrInvalidDropTarget = errors.New("invalid drop target")
)

// Reader is the read side of the project store.
type Reader interface {
	ListProjects(ctx context.Context) ([]db.Project, error)
	ListClients(ctx context.Context) ([]db.Client, error)
}

// Store is the remote project store the board mirrors.
type Store interface {
	Reader
	UpdateProjectStatus(ctx context.Context, id string, status db.Status) error
}

// State is the last known set of projects and clients.
type State struct {
	mu       sync.RWMutex
	projects []db.Project
	clients  map[string]db.Client
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		projects: []db.Project{},
		clients:  map[string]db.Client{},
	}
}

// Load fetches all projects and clients and replaces the current state. If either fetch fails
// the current state is left as it was.
func (s *State) Load(ctx context.Context, store Reader) error {
	projects, clients, err := fetch(ctx, store)
	if err != nil {
		return err
	}

	s.replace(projects, clients)

	return nil
}

// fetch reads projects and clients concurrently. Both must succeed.
func fetch(ctx context.Context, store Reader) ([]db.Project, []db.Client, error) {
	var (
		projects []db.Project
		clients  []db.Client
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error

		projects, err = store.ListProjects(groupCtx)
		if err != nil {
			return fmt.Errorf("error loading projects: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		var err error

		clients, err = store.ListClients(groupCtx)
		if err != nil {
			return fmt.Errorf("error loading clients: %w", err)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}

	return projects, clients, nil
}

func (s *State) replace(projects []db.Project, clients []db.Client) {
	byID := make(map[string]db.Client, len(clients))
	for _, client := range clients {
		byID[client.ID] = client
	}

	if projects == nil {
		projects = []db.Project{}
	}

	s.mu.Lock()
	s.projects = projects
	s.clients = byID
	s.mu.Unlock()
}

// ApplyStatusChange sets the status of the project with the given id. Unknown ids are ignored.
func (s *State) ApplyStatusChange(id string, status db.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects[i].Status = status

			return true
		}
	}

	return false
}

// Project returns the project with the given id.
func (s *State) Project(id string) (db.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, project := range s.projects {
		if project.ID == id {
			return project, true
		}
	}

	return db.Project{}, false
}

// Projects returns a copy of all projects in load order.
func (s *State) Projects() []db.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]db.Project, len(s.projects))
	copy(projects, s.projects)

	return projects
}

// Clients returns a copy of all clients.
func (s *State) Clients() []db.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]db.Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}

	return clients
}

// ClientName returns the display name of a client, or "" if it is unknown.
func (s *State) ClientName(clientID string) string {
	if clientID == "" {
		return ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clients[clientID].Name
}
