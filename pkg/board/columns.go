package board

import "github.com/matt-steen/project-board/pkg/db"

// Column is one bucket of the board. Its id is the status it holds.
type Column struct {
	ID       db.Status
	Title    string
	Projects []db.Project
}

// Columns partitions projects by status, one column per status in column order. Projects keep
// their relative order within a column.
func Columns(projects []db.Project) []Column {
	columns := make([]Column, db.NumStatuses)

	for _, status := range db.Statuses() {
		columns[status] = Column{
			ID:       status,
			Title:    StatusDisplay(status).Title,
			Projects: []db.Project{},
		}
	}

	for _, project := range projects {
		if !project.Status.Valid() {
			continue
		}

		columns[project.Status].Projects = append(columns[project.Status].Projects, project)
	}

	return columns
}

// Snapshot is what the rendering layer draws.
type Snapshot struct {
	Columns []Column
	// ActiveProjectID is the id of the project being dragged, or "" when no drag is active.
	ActiveProjectID string
	Summary         Summary
}
