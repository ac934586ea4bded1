package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/matt-steen/project-board/pkg/api"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-key"

func newServer(t *testing.T) (*echo.Echo, *db.Database) {
	t.Helper()

	database, err := db.NewDatabase(context.Background(), t.TempDir()+"/api.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	reg := prometheus.NewRegistry()

	return api.New(database, apiKey, reg), database
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+apiKey)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestHealthzNeedsNoKey(t *testing.T) {
	t.Parallel()

	e, _ := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresKey(t *testing.T) {
	t.Parallel()

	e, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer wrong")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
}

func TestCreateAndListProjects(t *testing.T) {
	t.Parallel()

	e, _ := newServer(t)

	rec := do(e, http.MethodPost, "/api/clients", `{"name":"Acme","email":"ops@acme.test"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var client db.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &client))
	assert.NotEmpty(t, client.ID)

	rec = do(e, http.MethodPost, "/api/projects",
		`{"name":"website","client_id":"`+client.ID+`","value":1200,"payment_status":"will_pay"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var projects []db.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "website", projects[0].Name)
	assert.Equal(t, db.StatusTodo, projects[0].Status)
	assert.Equal(t, db.PaymentWillPay, projects[0].PaymentStatus)

	rec = do(e, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme")
}

func TestStatusPatchOnlyChangesStatus(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)
	ctx := context.Background()

	project, err := database.CreateProject(ctx, db.Project{Name: "work", Description: "details", Value: 10})
	require.NoError(t, err)

	rec := do(e, http.MethodPatch, "/api/projects/"+project.ID, `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := database.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusInProgress, stored.Status)
	assert.Equal(t, "details", stored.Description)
	assert.Equal(t, 10.0, stored.Value)

	assert.Contains(t, scrape(t, e), `board_api_status_updates_total{status="in_progress"} 1`)
}

func TestPatchErrors(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)

	project, err := database.CreateProject(context.Background(), db.Project{Name: "work"})
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{name: "unknown status", path: "/api/projects/" + project.ID, body: `{"status":"later"}`, code: http.StatusBadRequest},
		{name: "missing project", path: "/api/projects/missing", body: `{"status":"done"}`, code: http.StatusNotFound},
		{name: "invalid value", path: "/api/projects/" + project.ID, body: `{"value":-1}`, code: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestMarkPaidAndDelete(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)
	ctx := context.Background()

	project, err := database.CreateProject(ctx, db.Project{Name: "work", Value: 300})
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/projects/"+project.ID+"/paid", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := database.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, db.PaymentPaid, stored.PaymentStatus)

	rec = do(e, http.MethodDelete, "/api/projects/"+project.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodDelete, "/api/projects/"+project.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newServer(t)

	do(e, http.MethodGet, "/api/projects", "")

	assert.Contains(t, scrape(t, e), `board_api_requests_total{code="200",route="/api/projects"} 1`)
}

func scrape(t *testing.T, e *echo.Echo) string {
	t.Helper()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}

func TestUpdateClient(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)

	client, err := database.CreateClient(context.Background(), db.Client{Name: "Acme", Phone: "555-0100"})
	require.NoError(t, err)

	rec := do(e, http.MethodPut, "/api/clients/"+client.ID, `{"name":"Acme Ltd","company":"Acme Group"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/clients/"+client.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stored db.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "Acme Ltd", stored.Name)
	assert.Equal(t, "Acme Group", stored.Company)
	assert.Empty(t, stored.Phone)

	assert.Equal(t, http.StatusUnprocessableEntity, do(e, http.MethodPut, "/api/clients/"+client.ID, `{"name":""}`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/api/clients/missing", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/clients/missing", "").Code)
}

func TestPartialPayment(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)

	project, err := database.CreateProject(context.Background(), db.Project{Name: "site", Value: 1000})
	require.NoError(t, err)

	rec := do(e, http.MethodPatch, "/api/projects/"+project.ID, `{"paid_value":400,"payment_status":"will_pay"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := database.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, stored.PaidValue)
	assert.Equal(t, db.PaymentWillPay, stored.PaymentStatus)
	assert.Equal(t, 600.0, stored.Remaining())
}

func TestTimeEntries(t *testing.T) {
	t.Parallel()

	e, database := newServer(t)
	ctx := context.Background()

	project, err := database.CreateProject(ctx, db.Project{Name: "site"})
	require.NoError(t, err)

	done, err := database.CreateProject(ctx, db.Project{Name: "old", Status: db.StatusDone})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/time-entries", `{}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		do(e, http.MethodPost, "/api/time-entries", `{"project_id":"`+done.ID+`"}`).Code)

	rec := do(e, http.MethodPost, "/api/time-entries", `{"project_id":"`+project.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry db.TimeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.True(t, entry.Running())

	assert.Equal(t, http.StatusConflict,
		do(e, http.MethodPost, "/api/time-entries", `{"project_id":"`+project.ID+`"}`).Code)

	rec = do(e, http.MethodGet, "/api/time-entries?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []db.TimeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/api/time-entries?limit=many", "").Code)

	rec = do(e, http.MethodPost, "/api/time-entries/"+entry.ID+"/stop", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.False(t, entry.Running())

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/api/time-entries/"+entry.ID+"/stop", "").Code)
}
