package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/project-board/pkg/board"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// Store is everything the terminal UI does with projects and clients.
type Store interface {
	board.Store
	CreateProject(ctx context.Context, project db.Project) (db.Project, error)
	UpdateProject(ctx context.Context, id string, patch db.ProjectPatch) (db.Project, error)
	MarkPaid(ctx context.Context, id string) error
	CreateClient(ctx context.Context, client db.Client) (db.Client, error)
	UpdateClient(ctx context.Context, client db.Client) (db.Client, error)
	ListTimeEntries(ctx context.Context, limit int) ([]db.TimeEntry, error)
	StartTimer(ctx context.Context, projectID string) (db.TimeEntry, error)
	StopTimer(ctx context.Context, id string) (db.TimeEntry, error)
}

// Controller mediates between the board and the view.
type Controller struct {
	ctx   context.Context
	store Store
	board *board.Controller
	app   *tview.Application
	pages *tview.Pages

	header       *tview.Table
	footer       *tview.TextView
	columnTables [db.NumStatuses]*tview.Table

	snapshot       board.Snapshot
	selectedColumn db.Status

	events     map[tcell.Key]KeyEvent
	formEvents map[tcell.Key]KeyEvent

	projectForm    *tview.Form
	clientForm     *tview.Form
	formHeaders    map[string]*tview.Table
	clientOptions  []db.Client
	editingProject *db.Project

	// timer is the running time entry, nil when no timer runs.
	timer *db.TimeEntry

	// pending tracks store calls running off the UI goroutine.
	pending sync.WaitGroup
	// queue runs f on the UI goroutine and redraws.
	queue func(f func())
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	Action      func(*tcell.EventKey) *tcell.EventKey
}

// NewController creates a new Controller to run the app.
func NewController(ctx context.Context, store Store) (*Controller, error) {
	c := Controller{
		ctx:   ctx,
		store: store,
		app:   tview.NewApplication(),

		formHeaders: map[string]*tview.Table{},
	}

	c.queue = func(f func()) {
		c.app.QueueUpdateDraw(f)
	}

	c.board = board.NewController(store, board.NotifierFunc(c.notify))

	c.initEvents()
	c.initLayout()

	return &c, nil
}

// Go loads the board and runs the app until the user quits.
func (c *Controller) Go() error {
	// a failed load is already shown in the footer; the board stays usable
	_ = c.board.Load(c.ctx)
	c.timer = c.fetchTimer()

	c.render()

	if err := c.app.SetRoot(c.pages, true).SetFocus(c.columnTables[c.selectedColumn]).Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}

	return nil
}

func (c *Controller) initLayout() {
	c.header = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	c.footer = tview.NewTextView().SetDynamicColors(true)

	columns := tview.NewFlex().SetDirection(tview.FlexColumn)

	for _, status := range db.Statuses() {
		c.columnTables[status] = c.newColumnTable()
		columns.AddItem(c.columnTables[status], 0, 1, status == c.selectedColumn)
	}

	c.pages = tview.NewPages()
	c.pages.AddPage(pageBoard, c.getBoardGrid(columns), true, true)
	c.pages.AddPage(pageProjectForm, c.getProjectFormGrid(), true, false)
	c.pages.AddPage(pageClientForm, c.getClientFormGrid(), true, false)

	c.app.SetInputCapture(c.handleKeys)
}

func (c *Controller) getBoardGrid(columns *tview.Flex) *tview.Grid {
	// the header only needs a few rows; the columns take the rest
	grid := tview.NewGrid().SetRows(headerRows, 0, 1).SetBorders(true)

	grid.AddItem(c.header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(columns, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.footer, 2, 0, 1, 1, 0, 0, false)

	return grid
}

func (c *Controller) newColumnTable() *tview.Table {
	table := tview.NewTable().SetBorders(false)
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)

	return table
}

// render redraws the board from a fresh snapshot. It must run on the UI goroutine.
func (c *Controller) render() {
	c.snapshot = c.board.Snapshot()

	for _, column := range c.snapshot.Columns {
		table := c.columnTables[column.ID]

		row, _ := table.GetSelection()

		table.SetContent(&ColumnContent{
			column:     column,
			clientName: c.board.State().ClientName,
			activeID:   c.snapshot.ActiveProjectID,
			dropTarget: c.snapshot.ActiveProjectID != "" && column.ID == c.selectedColumn,
		})

		// keep the selection on a project row when the column shrank
		switch {
		case len(column.Projects) == 0:
			table.Select(0, 0)
		case row < 1:
			table.Select(1, 0)
		case row > len(column.Projects):
			table.Select(len(column.Projects), 0)
		}
	}

	c.updateHeader()
}

// selectedProject returns the project under the cursor in the focused column.
func (c *Controller) selectedProject() (db.Project, bool) {
	if len(c.snapshot.Columns) == 0 {
		return db.Project{}, false
	}

	column := c.snapshot.Columns[c.selectedColumn]
	row, _ := c.columnTables[c.selectedColumn].GetSelection()

	// adjust for the header row
	if idx := row - 1; idx >= 0 && idx < len(column.Projects) {
		return column.Projects[idx], true
	}

	return db.Project{}, false
}

func (c *Controller) selectColumn(status db.Status) {
	c.selectedColumn = status
	c.app.SetFocus(c.columnTables[status])
	c.render()
}

// notify shows a board notification in the footer. It may be called from any goroutine.
func (c *Controller) notify(n board.Notification) {
	color := "white"

	switch n.Level {
	case board.LevelSuccess:
		color = "green"
	case board.LevelError:
		color = "red"
	}

	text := fmt.Sprintf("[%s]%s", color, tview.Escape(n.Message))

	log.Debug().Str("level", n.Level.String()).Err(n.Err).Msg(n.Message)

	c.queue(func() {
		c.footer.SetText(text)
	})
}

// drop hands the drop to the board off the UI goroutine and redraws once it resolves.
func (c *Controller) drop(activeID string, target db.Status) {
	c.pending.Add(1)

	go func() {
		defer c.pending.Done()

		result := c.board.OnDrop(c.ctx, activeID, target.String())

		log.Debug().Str("project", activeID).Str("result", result.String()).Msg("drop resolved")

		c.queue(c.render)
	}()
}

func (c *Controller) reload() {
	c.pending.Add(1)

	go func() {
		defer c.pending.Done()

		if err := c.board.Load(c.ctx); err == nil {
			c.notify(board.Notification{Level: board.LevelInfo, Message: "board reloaded"})
		}

		timer := c.fetchTimer()

		c.queue(func() {
			c.timer = timer
			c.render()
		})
	}()
}

// fetchTimer returns the running time entry, if any. Errors are logged and read as no timer.
func (c *Controller) fetchTimer() *db.TimeEntry {
	entries, err := c.store.ListTimeEntries(c.ctx, db.DefaultTimeEntryLimit)
	if err != nil {
		log.Warn().Err(err).Msg("error loading time entries")

		return nil
	}

	if entry, ok := db.RunningEntry(entries); ok {
		return &entry
	}

	return nil
}

// toggleTimer stops the running timer, or starts one for project when none runs.
func (c *Controller) toggleTimer(project db.Project, hasProject bool) {
	running := c.timer

	if running == nil && !hasProject {
		return
	}

	c.pending.Add(1)

	go func() {
		defer c.pending.Done()

		var (
			err     error
			message string
		)

		if running != nil {
			var entry db.TimeEntry

			entry, err = c.store.StopTimer(c.ctx, running.ID)
			message = fmt.Sprintf("timer stopped after %s", entry.Duration(time.Now()).Round(time.Minute))
		} else {
			_, err = c.store.StartTimer(c.ctx, project.ID)
			message = fmt.Sprintf("timer started for '%s'", project.Name)
		}

		if err != nil {
			log.Warn().Err(err).Msg("error toggling timer")
			c.notify(board.Notification{Level: board.LevelError, Message: "error updating timer", Err: err})
		} else {
			c.notify(board.Notification{Level: board.LevelSuccess, Message: message})
		}

		timer := c.fetchTimer()

		c.queue(func() {
			c.timer = timer
			c.render()
		})
	}()
}

func (c *Controller) markPaid(project db.Project) {
	c.pending.Add(1)

	go func() {
		defer c.pending.Done()

		if err := c.store.MarkPaid(c.ctx, project.ID); err != nil {
			log.Warn().Err(err).Str("project", project.ID).Msg("error marking project as paid")
			c.notify(board.Notification{Level: board.LevelError, Message: "error marking project as paid", Err: err})

			return
		}

		c.notify(board.Notification{Level: board.LevelSuccess, Message: fmt.Sprintf("'%s' marked as paid", project.Name)})

		if err := c.board.Load(c.ctx); err == nil {
			c.queue(c.render)
		}
	}()
}

func (c *Controller) quit() {
	c.board.Close()
	c.app.Stop()

	log.Info().Msg("terminating application")
}
