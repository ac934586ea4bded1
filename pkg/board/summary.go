package board

import "github.com/matt-steen/project-board/pkg/db"

// Summary holds the finance totals across a set of projects.
type Summary struct {
	Total     float64
	Paid      float64
	Remaining float64
	// ByPayment is the summed project value per payment status.
	ByPayment [db.NumPaymentStatuses]float64
}

// Summarize totals project values over every project, cancelled ones included.
func Summarize(projects []db.Project) Summary {
	var summary Summary

	for _, project := range projects {
		if project.PaymentStatus.Valid() {
			summary.ByPayment[project.PaymentStatus] += project.Value
		}

		summary.Total += project.Value
		summary.Paid += project.PaidValue
	}

	summary.Remaining = summary.Total - summary.Paid

	return summary
}
