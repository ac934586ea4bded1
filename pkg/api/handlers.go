package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/matt-steen/project-board/pkg/db"
)

type handlers struct {
	store   Storage
	metrics *metrics
}

func (h *handlers) listProjects(c echo.Context) error {
	projects, err := h.store.ListProjects(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, projects)
}

func (h *handlers) createProject(c echo.Context) error {
	var project db.Project
	if err := c.Bind(&project); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project body")
	}

	created, err := h.store.CreateProject(c.Request().Context(), project)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateProject(c echo.Context) error {
	var patch db.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project patch")
	}

	updated, err := h.store.UpdateProject(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return storeError(c, err)
	}

	if patch.Status != nil {
		h.metrics.observeStatusUpdate(*patch.Status)
	}

	return c.JSON(http.StatusOK, updated)
}

func (h *handlers) markPaid(c echo.Context) error {
	if err := h.store.MarkPaid(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteProject(c echo.Context) error {
	if err := h.store.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) listClients(c echo.Context) error {
	clients, err := h.store.ListClients(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, clients)
}

func (h *handlers) createClient(c echo.Context) error {
	var client db.Client
	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client body")
	}

	created, err := h.store.CreateClient(c.Request().Context(), client)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) getClient(c echo.Context) error {
	client, err := h.store.GetClient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, client)
}

func (h *handlers) updateClient(c echo.Context) error {
	var client db.Client
	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client body")
	}

	client.ID = c.Param("id")

	updated, err := h.store.UpdateClient(c.Request().Context(), client)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

func (h *handlers) listTimeEntries(c echo.Context) error {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	entries, err := h.store.ListTimeEntries(c.Request().Context(), limit)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, entries)
}

type startTimerBody struct {
	ProjectID string `json:"project_id"`
}

func (h *handlers) startTimer(c echo.Context) error {
	var body startTimerBody
	if err := c.Bind(&body); err != nil || body.ProjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id is required")
	}

	entry, err := h.store.StartTimer(c.Request().Context(), body.ProjectID)
	if err != nil {
		return storeError(c, err)
	}

	h.metrics.observeTimer("start")

	return c.JSON(http.StatusCreated, entry)
}

func (h *handlers) stopTimer(c echo.Context) error {
	entry, err := h.store.StopTimer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}

	h.metrics.observeTimer("stop")

	return c.JSON(http.StatusOK, entry)
}
