// Package remote talks to the project store over its HTTP API.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/matt-steen/project-board/pkg/db"
)

// Error is a non-2xx response from the API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client is a project store backed by the HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client for the API at baseURL. Each request is bounded by timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListProjects returns every project, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]db.Project, error) {
	var projects []db.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}

	return projects, nil
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]db.Client, error) {
	var clients []db.Client
	if err := c.do(ctx, http.MethodGet, "/api/clients", nil, &clients); err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}

	return clients, nil
}

type statusPatch struct {
	Status db.Status `json:"status"`
}

// UpdateProjectStatus sends a patch carrying only the status field.
func (c *Client) UpdateProjectStatus(ctx context.Context, id string, status db.Status) error {
	if err := c.do(ctx, http.MethodPatch, projectPath(id), statusPatch{Status: status}, nil); err != nil {
		return fmt.Errorf("error changing status of project '%s' to %s: %w", id, status, err)
	}

	return nil
}

// UpdateProject applies a partial update and returns the stored project.
func (c *Client) UpdateProject(ctx context.Context, id string, patch db.ProjectPatch) (db.Project, error) {
	var project db.Project
	if err := c.do(ctx, http.MethodPatch, projectPath(id), patch, &project); err != nil {
		return db.Project{}, fmt.Errorf("error updating project '%s': %w", id, err)
	}

	return project, nil
}

// CreateProject stores a new project.
func (c *Client) CreateProject(ctx context.Context, project db.Project) (db.Project, error) {
	var created db.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", project, &created); err != nil {
		return db.Project{}, fmt.Errorf("error adding project '%s': %w", project.Name, err)
	}

	return created, nil
}

// CreateClient stores a new client.
func (c *Client) CreateClient(ctx context.Context, client db.Client) (db.Client, error) {
	var created db.Client
	if err := c.do(ctx, http.MethodPost, "/api/clients", client, &created); err != nil {
		return db.Client{}, fmt.Errorf("error adding client '%s': %w", client.Name, err)
	}

	return created, nil
}

// GetClient returns one client.
func (c *Client) GetClient(ctx context.Context, id string) (db.Client, error) {
	var client db.Client
	if err := c.do(ctx, http.MethodGet, clientPath(id), nil, &client); err != nil {
		return db.Client{}, fmt.Errorf("error loading client '%s': %w", id, err)
	}

	return client, nil
}

// UpdateClient replaces the contact details of client.ID.
func (c *Client) UpdateClient(ctx context.Context, client db.Client) (db.Client, error) {
	var updated db.Client
	if err := c.do(ctx, http.MethodPut, clientPath(client.ID), client, &updated); err != nil {
		return db.Client{}, fmt.Errorf("error updating client '%s': %w", client.ID, err)
	}

	return updated, nil
}

// ListTimeEntries returns the latest time entries, most recently started first.
func (c *Client) ListTimeEntries(ctx context.Context, limit int) ([]db.TimeEntry, error) {
	path := "/api/time-entries"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var entries []db.TimeEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, fmt.Errorf("error listing time entries: %w", err)
	}

	return entries, nil
}

type startTimer struct {
	ProjectID string `json:"project_id"`
}

// StartTimer starts a timer for the project.
func (c *Client) StartTimer(ctx context.Context, projectID string) (db.TimeEntry, error) {
	var entry db.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/api/time-entries", startTimer{ProjectID: projectID}, &entry); err != nil {
		return db.TimeEntry{}, fmt.Errorf("error starting timer for project '%s': %w", projectID, err)
	}

	return entry, nil
}

// StopTimer stops the running time entry with the given id.
func (c *Client) StopTimer(ctx context.Context, id string) (db.TimeEntry, error) {
	var entry db.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/api/time-entries/"+url.PathEscape(id)+"/stop", nil, &entry); err != nil {
		return db.TimeEntry{}, fmt.Errorf("error stopping timer '%s': %w", id, err)
	}

	return entry, nil
}

// MarkPaid marks the project as fully paid.
func (c *Client) MarkPaid(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, projectPath(id)+"/paid", nil, nil); err != nil {
		return fmt.Errorf("error marking project '%s' as paid: %w", id, err)
	}

	return nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, projectPath(id), nil, nil); err != nil {
		return fmt.Errorf("error deleting project '%s': %w", id, err)
	}

	return nil
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}

func clientPath(id string) string {
	return "/api/clients/" + url.PathEscape(id)
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorBody
		if len(payload) > 0 && sonic.Unmarshal(payload, &apiErr) == nil && apiErr.Message != "" {
			return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: apiErr.Message}
		}

		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}
