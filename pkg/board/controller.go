package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/matt-steen/project-board/pkg/db"
	"github.com/rs/zerolog/log"
)

// DropResult is what a drop did to the board.
type DropResult int

// These are the outcomes of OnDrop.
const (
	// DropIgnored means nothing changed and no remote call was made.
	DropIgnored DropResult = iota
	// DropMoved means the store accepted the new status and the board now shows it.
	DropMoved
	// DropFailed means the store rejected the update; the project stays where it was.
	DropFailed
	// DropBusy means an update for the same project was still outstanding.
	DropBusy
)

func (r DropResult) String() string {
	switch r {
	case DropMoved:
		return "moved"
	case DropFailed:
		return "failed"
	case DropBusy:
		return "busy"
	default:
		return "ignored"
	}
}

// Messages shown to the user.
const (
	MsgLoadFailed   = "error loading projects"
	MsgStatusSaved  = "status updated"
	MsgUpdateFailed = "error updating status"
	MsgUpdateBusy   = "status update already in progress"
)

// Controller mediates between drag gestures, the board state and the remote store. A project
// only changes column after the store has accepted the change.
type Controller struct {
	store    Store
	notifier Notifier
	state    *State
	drag     DragSession

	mu       sync.Mutex
	inFlight map[string]struct{}
	closed   bool
}

// NewController creates a Controller with an empty board. A nil notifier drops notifications.
func NewController(store Store, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}

	return &Controller{
		store:    store,
		notifier: notifier,
		state:    NewState(),
		inFlight: map[string]struct{}{},
	}
}

// State returns the board state owned by the controller.
func (c *Controller) State() *State {
	return c.state
}

// Load replaces the board with a fresh copy from the store. On failure the board keeps its
// previous contents and the user is notified.
func (c *Controller) Load(ctx context.Context) error {
	projects, clients, err := fetch(ctx, c.store)

	if c.isClosed() {
		return err
	}

	if err != nil {
		log.Warn().Err(err).Msg("error loading board")
		c.notifier.Notify(Notification{Level: LevelError, Message: MsgLoadFailed, Err: err})

		return err
	}

	if !c.whileOpen(func() { c.state.replace(projects, clients) }) {
		log.Debug().Msg("board closed; discarding loaded projects")

		return nil
	}

	log.Debug().Int("projects", len(projects)).Msg("loaded board")

	return nil
}

// DragStart records that the given project is being dragged.
func (c *Controller) DragStart(id string) {
	c.drag.Start(id)
}

// EndDrag clears the drag session without changing the board.
func (c *Controller) EndDrag() {
	c.drag.End()
}

// DragCancel ends a drag that was released outside of any column.
func (c *Controller) DragCancel() {
	id, _ := c.drag.Active()
	c.OnDrop(context.Background(), id, "")
}

// ActiveProject returns the dragged project, if any.
func (c *Controller) ActiveProject() (db.Project, bool) {
	id, ok := c.drag.Active()
	if !ok {
		return db.Project{}, false
	}

	return c.state.Project(id)
}

// resolveTarget maps a drop target to a column. A target is either a column id or the id of a
// project, which stands for the column that project is in.
func (c *Controller) resolveTarget(targetID string) (db.Status, error) {
	if status, err := db.ParseStatus(targetID); err == nil {
		return status, nil
	}

	if project, ok := c.state.Project(targetID); ok {
		return project.Status, nil
	}

	return 0, fmt.Errorf("%w: '%s'", ErrInvalidDropTarget, targetID)
}

// OnDrop finishes a drag of activeID onto targetID. An empty targetID means the drag was
// released outside any column.
func (c *Controller) OnDrop(ctx context.Context, activeID, targetID string) DropResult {
	c.drag.End()

	if targetID == "" || activeID == "" || targetID == activeID {
		return DropIgnored
	}

	project, ok := c.state.Project(activeID)
	if !ok {
		log.Debug().Str("project", activeID).Msg("dropped project is not on the board")

		return DropIgnored
	}

	newStatus, err := c.resolveTarget(targetID)
	if err != nil {
		log.Debug().Err(err).Str("project", activeID).Msg("ignoring drop")

		return DropIgnored
	}

	if newStatus == project.Status {
		return DropIgnored
	}

	if !c.acquire(activeID) {
		log.Warn().Str("project", activeID).Msg("status update already in flight; rejecting drop")
		c.notifier.Notify(Notification{Level: LevelInfo, Message: MsgUpdateBusy})

		return DropBusy
	}
	defer c.release(activeID)

	log.Debug().
		Str("project", activeID).
		Str("from", project.Status.String()).
		Str("to", newStatus.String()).
		Msg("changing project status")

	err = c.store.UpdateProjectStatus(ctx, activeID, newStatus)

	if c.isClosed() {
		log.Debug().Str("project", activeID).Msg("board closed; discarding status update response")

		return DropIgnored
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRemoteWrite, err)

		log.Warn().Err(err).Msgf(
			"error while trying to change status from %s to %s for project '%s'",
			project.Status, newStatus, project.Name,
		)
		c.notifier.Notify(Notification{Level: LevelError, Message: MsgUpdateFailed, Err: err})

		return DropFailed
	}

	if !c.whileOpen(func() { c.state.ApplyStatusChange(activeID, newStatus) }) {
		return DropIgnored
	}

	c.notifier.Notify(Notification{Level: LevelSuccess, Message: MsgStatusSaved})

	return DropMoved
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[id]; busy {
		return false
	}

	c.inFlight[id] = struct{}{}

	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, id)
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// whileOpen runs f unless the board has been closed. Close waits for f to return.
func (c *Controller) whileOpen(f func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	f()

	return true
}

// Close tears the board down. Responses that arrive afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

// Snapshot returns the board as it should be drawn right now.
func (c *Controller) Snapshot() Snapshot {
	projects := c.state.Projects()
	activeID, _ := c.drag.Active()

	return Snapshot{
		Columns:         Columns(projects),
		ActiveProjectID: activeID,
		Summary:         Summarize(projects),
	}
}
