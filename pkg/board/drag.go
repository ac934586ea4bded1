package board

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// DragSession tracks the project currently being dragged. It is either idle or dragging exactly
// one project.
type DragSession struct {
	mu       sync.Mutex
	activeID string
	dragging bool
}

// Start begins dragging the given project. If a drag is already active the new one replaces it.
func (d *DragSession) Start(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dragging {
		log.Warn().
			Str("active", d.activeID).
			Str("project", id).
			Msg("drag started while another drag was active; replacing it")
	}

	d.activeID = id
	d.dragging = true
}

// End returns the session to idle, whether or not the drag ended in a valid drop.
func (d *DragSession) End() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.activeID = ""
	d.dragging = false
}

// Active returns the id of the dragged project and whether a drag is in progress.
func (d *DragSession) Active() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.activeID, d.dragging
}
