package board

import "github.com/matt-steen/project-board/pkg/db"

// Display is how a status is labelled and colored on screen. Colors are tview color tag names.
type Display struct {
	Title string
	Color string
}

var statusDisplay = [...]Display{
	db.StatusTodo:       {Title: "To Do", Color: "yellow"},
	db.StatusInProgress: {Title: "In Progress", Color: "dodgerblue"},
	db.StatusDone:       {Title: "Done", Color: "green"},
}

var paymentDisplay = [...]Display{
	db.PaymentPending:   {Title: "Pending", Color: "orange"},
	db.PaymentWillPay:   {Title: "Will Pay", Color: "dodgerblue"},
	db.PaymentPaid:      {Title: "Paid", Color: "green"},
	db.PaymentNotPaid:   {Title: "Not Paid", Color: "red"},
	db.PaymentCancelled: {Title: "Cancelled", Color: "gray"},
}

// Both tables must have exactly one entry per enum value; a mismatch does not compile.
var (
	_ = [1]struct{}{}[len(statusDisplay)-db.NumStatuses]
	_ = [1]struct{}{}[len(paymentDisplay)-db.NumPaymentStatuses]
)

// StatusDisplay returns the title and color of a column.
func StatusDisplay(status db.Status) Display {
	return statusDisplay[status]
}

// PaymentDisplay returns the label and color of a payment status.
func PaymentDisplay(status db.PaymentStatus) Display {
	return paymentDisplay[status]
}
