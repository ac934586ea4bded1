package controller

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/project-board/pkg/board"
	"github.com/rivo/tview"
)

const (
	nameClientRatio = 2
)

// ColumnContent implements tview.TableContent for one board column.
type ColumnContent struct {
	tview.TableContentReadOnly
	column     board.Column
	clientName func(string) string
	activeID   string
	dropTarget bool
}

// GetCell returns the cell at the given position or nil if no cell.
func (s *ColumnContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		display := board.StatusDisplay(s.column.ID)

		switch col {
		case 0:
			title := fmt.Sprintf("[%s]%s (%d)", display.Color, display.Title, len(s.column.Projects))
			if s.dropTarget {
				title = "» " + title
			}

			return tview.NewTableCell(title).SetExpansion(nameClientRatio).SetSelectable(false)
		case 1:
			return tview.NewTableCell("client").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 2:
			return tview.NewTableCell("payment").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		}

		return nil
	}

	if row-1 >= len(s.column.Projects) {
		return nil
	}

	project := s.column.Projects[row-1]

	switch col {
	case 0:
		name := tview.Escape(project.Name)
		if project.ID == s.activeID {
			name = "[::r]" + name + "[::-]"
		}

		return tview.NewTableCell(name).SetExpansion(nameClientRatio).SetReference(project.ID)
	case 1:
		return tview.NewTableCell(tview.Escape(s.clientName(project.ClientID))).SetExpansion(1)
	case 2:
		payment := board.PaymentDisplay(project.PaymentStatus)

		return tview.NewTableCell(fmt.Sprintf("[%s]%s[white] %.2f", payment.Color, payment.Title, project.Remaining())).
			SetExpansion(1)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (s *ColumnContent) GetRowCount() int {
	return len(s.column.Projects) + 1
}

// GetColumnCount returns the number of columns in the table.
func (s *ColumnContent) GetColumnCount() int {
	return 3
}
