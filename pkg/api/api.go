// Package api serves the project store over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Storage is what the API needs from the system of record.
type Storage interface {
	ListProjects(ctx context.Context) ([]db.Project, error)
	ListClients(ctx context.Context) ([]db.Client, error)
	CreateProject(ctx context.Context, project db.Project) (db.Project, error)
	CreateClient(ctx context.Context, client db.Client) (db.Client, error)
	GetClient(ctx context.Context, id string) (db.Client, error)
	UpdateClient(ctx context.Context, client db.Client) (db.Client, error)
	ListTimeEntries(ctx context.Context, limit int) ([]db.TimeEntry, error)
	StartTimer(ctx context.Context, projectID string) (db.TimeEntry, error)
	StopTimer(ctx context.Context, id string) (db.TimeEntry, error)
	UpdateProject(ctx context.Context, id string, patch db.ProjectPatch) (db.Project, error)
	MarkPaid(ctx context.Context, id string) error
	DeleteProject(ctx context.Context, id string) error
}

// New builds an echo instance serving store. Every /api route requires the bearer apiKey;
// an empty apiKey disables authentication. Metrics are registered on reg.
func New(store Storage, apiKey string, reg prometheus.Registerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := newMetrics(reg)

	e.Use(middleware.Recover())
	e.Use(requestLogger(metrics))

	e.GET("/healthz", healthz)

	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	group := e.Group("/api")

	if apiKey != "" {
		group.Use(middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		}))
	}

	h := &handlers{store: store, metrics: metrics}

	group.GET("/projects", h.listProjects)
	group.POST("/projects", h.createProject)
	group.PATCH("/projects/:id", h.updateProject)
	group.POST("/projects/:id/paid", h.markPaid)
	group.DELETE("/projects/:id", h.deleteProject)
	group.GET("/clients", h.listClients)
	group.POST("/clients", h.createClient)
	group.GET("/clients/:id", h.getClient)
	group.PUT("/clients/:id", h.updateClient)
	group.GET("/time-entries", h.listTimeEntries)
	group.POST("/time-entries", h.startTimer)
	group.POST("/time-entries/:id/stop", h.stopTimer)

	return e
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func requestLogger(metrics *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			metrics.observeRequest(c.Path(), status)

			log.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("handled request")

			return nil
		}
	}
}

// errorStatus maps store errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrInvalidProject), errors.Is(err, db.ErrInvalidClient),
		errors.Is(err, db.ErrInvalidTimeEntry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrTimerRunning):
		return http.StatusConflict
	case errors.Is(err, db.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func storeError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("store error")
	}

	return echo.NewHTTPError(status, err.Error())
}
