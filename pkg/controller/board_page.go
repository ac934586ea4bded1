package controller

import (
	"fmt"
	"sort"
	"time"

	"github.com/matt-steen/project-board/pkg/board"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/rivo/tview"
)

const (
	pageBoard       = "board"
	pageProjectForm = "projectForm"
	pageClientForm  = "clientForm"

	headerRows = 8
)

// updateHeader redraws the header above the columns.
// it shows the finance totals at the top, followed by 2 columns listing keyboard shortcuts.
// the first column contains drag shortcuts and the second everything else, both sorted
// alphabetically.
func (c *Controller) updateHeader() {
	c.header.Clear()

	summary := c.snapshot.Summary

	row := 0
	c.header.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(
		"[yellow]Total[white] %.2f  [green]Paid[white] %.2f  [orange]Remaining[white] %.2f",
		summary.Total, summary.Paid, summary.Remaining,
	)).SetExpansion(1))
	c.header.SetCell(row, 1, tview.NewTableCell(paymentTotals(summary)).SetExpansion(1))
	c.header.SetCell(row, 2, tview.NewTableCell(c.timerText()).SetExpansion(1))
	row++

	shortcuts := map[int][]string{
		0: {},
		1: {},
	}

	for key, event := range c.events {
		text := fmt.Sprintf("[orange]<%s>[white] %s", keyName(key), event.Description)

		switch event.Description {
		case "Drag project", "Drop here", "Cancel drag", "Column left", "Column right":
			shortcuts[0] = append(shortcuts[0], text)
		default:
			shortcuts[1] = append(shortcuts[1], text)
		}
	}

	for col := 0; col < 2; col++ {
		sort.Strings(shortcuts[col])
	}

	for row-1 < len(shortcuts[0]) || row-1 < len(shortcuts[1]) {
		for col := 0; col < 2; col++ {
			if row-1 < len(shortcuts[col]) {
				c.header.SetCell(row, col, tview.NewTableCell(shortcuts[col][row-1]).SetExpansion(1))
			}
		}

		row++
	}
}

func paymentTotals(summary board.Summary) string {
	text := ""

	for _, status := range db.PaymentStatuses() {
		if summary.ByPayment[status] == 0 {
			continue
		}

		display := board.PaymentDisplay(status)
		text += fmt.Sprintf("[%s]%s[white] %.2f  ", display.Color, display.Title, summary.ByPayment[status])
	}

	return text
}

func (c *Controller) timerText() string {
	if c.timer == nil {
		return ""
	}

	name := c.timer.ProjectID
	if project, ok := c.board.State().Project(c.timer.ProjectID); ok {
		name = project.Name
	}

	return fmt.Sprintf("[red]timer[white] %s %s",
		tview.Escape(name), c.timer.Duration(time.Now()).Round(time.Minute))
}

func (c *Controller) showBoard() {
	c.app.SetInputCapture(c.handleKeys)
	c.pages.SwitchToPage(pageBoard)
	c.app.SetFocus(c.columnTables[c.selectedColumn])

	c.render()
}
