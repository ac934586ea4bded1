package controller

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/rs/zerolog/log"
)

func (c *Controller) initEvents() {
	c.events = map[tcell.Key]KeyEvent{}
	c.formEvents = map[tcell.Key]KeyEvent{}

	c.initDragEvents(c.events)
	c.initBoardEvents(c.events)
	c.initExitEvent(c.events)

	c.formEvents[tcell.KeyEsc] = KeyEvent{
		Description: "Back to board",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showBoard()

			return nil
		},
	}
}

func (c *Controller) handleKeys(evt *tcell.EventKey) *tcell.EventKey {
	if k, ok := c.events[AsKey(evt)]; ok {
		return k.Action(evt)
	}

	return evt
}

// handleFormKeys only looks at special keys so that typing into a field is never captured.
func (c *Controller) handleFormKeys(evt *tcell.EventKey) *tcell.EventKey {
	if k, ok := c.formEvents[evt.Key()]; ok && evt.Key() != tcell.KeyRune {
		return k.Action(evt)
	}

	return evt
}

func (c *Controller) initExitEvent(events map[tcell.Key]KeyEvent) {
	events[KeyQ] = KeyEvent{
		Description: "Exit",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.quit()

			return nil
		},
	}
}

func (c *Controller) getColumnAction(step int) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		next := int(c.selectedColumn) + step
		if next < 0 || next >= db.NumStatuses {
			return nil
		}

		c.selectColumn(db.Status(next))

		return nil
	}
}

func (c *Controller) initDragEvents(events map[tcell.Key]KeyEvent) {
	events[tcell.KeyLeft] = KeyEvent{
		Description: "Column left",
		Action:      c.getColumnAction(-1),
	}

	events[tcell.KeyRight] = KeyEvent{
		Description: "Column right",
		Action:      c.getColumnAction(1),
	}

	events[KeySpace] = KeyEvent{
		Description: "Drag project",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			project, ok := c.selectedProject()
			if !ok {
				return nil
			}

			log.Debug().Str("project", project.ID).Msgf("dragging '%s'", project.Name)

			c.board.DragStart(project.ID)
			c.render()

			return nil
		},
	}

	events[tcell.KeyEnter] = KeyEvent{
		Description: "Drop here",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			project, ok := c.board.ActiveProject()
			if !ok {
				return nil
			}

			// the card leaves its dragging look before the store answers
			c.board.EndDrag()
			c.render()

			c.drop(project.ID, c.selectedColumn)

			return nil
		},
	}

	events[tcell.KeyEsc] = KeyEvent{
		Description: "Cancel drag",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.board.DragCancel()
			c.render()

			return nil
		},
	}
}

func (c *Controller) initBoardEvents(events map[tcell.Key]KeyEvent) {
	events[KeyR] = KeyEvent{
		Description: "Reload",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.reload()

			return nil
		},
	}

	events[KeyN] = KeyEvent{
		Description: "New project",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToProjectForm(nil)

			return nil
		},
	}

	events[KeyE] = KeyEvent{
		Description: "Edit project",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if project, ok := c.selectedProject(); ok {
				c.switchToProjectForm(&project)
			}

			return nil
		},
	}

	events[KeyT] = KeyEvent{
		Description: "Start/stop timer",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			project, ok := c.selectedProject()
			c.toggleTimer(project, ok)

			return nil
		},
	}

	events[KeyC] = KeyEvent{
		Description: "Clients",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToClientForm()

			return nil
		},
	}

	events[KeyP] = KeyEvent{
		Description: "Mark paid",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if project, ok := c.selectedProject(); ok {
				c.markPaid(project)
			}

			return nil
		},
	}
}
