package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeEntryLimit is how many entries ListTimeEntries returns when no limit is given.
const DefaultTimeEntryLimit = 10

var (
	// ErrTimerRunning is returned when starting a timer while another one runs.
	ErrTimerRunning = errors.New("a timer is already running")
	// ErrInvalidTimeEntry is returned when a timer cannot be started for a project.
	ErrInvalidTimeEntry = errors.New("invalid time entry")
)

const timeEntryColumns = `id, project_id, start_time, end_time`

func scanTimeEntry(row rowScanner) (TimeEntry, error) {
	var (
		entry   TimeEntry
		endTime sql.NullTime
	)

	if err := row.Scan(&entry.ID, &entry.ProjectID, &entry.StartTime, &endTime); err != nil {
		return TimeEntry{}, err
	}

	if endTime.Valid {
		t := endTime.Time
		entry.EndTime = &t
	}

	return entry, nil
}

// ListTimeEntries returns the latest time entries, most recently started first.
func (d *Database) ListTimeEntries(ctx context.Context, limit int) ([]TimeEntry, error) {
	if limit <= 0 {
		limit = DefaultTimeEntryLimit
	}

	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entry ORDER BY start_time DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("error loading time entries: %w", err)
	}
	defer rows.Close()

	entries := []TimeEntry{}

	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning time entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning time entries: %w", err)
	}

	return entries, nil
}

// StartTimer starts a new time entry for the project. Only one timer runs at a time and done
// projects cannot be timed.
func (d *Database) StartTimer(ctx context.Context, projectID string) (TimeEntry, error) {
	entry := TimeEntry{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		StartTime: time.Now().UTC(),
	}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		project, err := getProject(ctx, tx, projectID)
		if err != nil {
			return err
		}

		if project.Status == StatusDone {
			return fmt.Errorf("%w: project '%s' is done", ErrInvalidTimeEntry, project.Name)
		}

		var running int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM time_entry WHERE end_time IS NULL`).Scan(&running); err != nil {
			return fmt.Errorf("error checking running timers: %w", err)
		}

		if running > 0 {
			return ErrTimerRunning
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO time_entry (`+timeEntryColumns+`) VALUES ($1, $2, $3, NULL)`,
			entry.ID, entry.ProjectID, entry.StartTime,
		)
		if err != nil {
			return fmt.Errorf("error starting timer for project '%s': %w", projectID, err)
		}

		return nil
	})
	if err != nil {
		return TimeEntry{}, err
	}

	log.Debug().Str("project", projectID).Str("entry", entry.ID).Msg("started timer")

	return entry, nil
}

// StopTimer stops the running time entry with the given id.
func (d *Database) StopTimer(ctx context.Context, id string) (TimeEntry, error) {
	var entry TimeEntry

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx,
			`UPDATE time_entry SET end_time = $1 WHERE id = $2 AND end_time IS NULL`, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("error stopping timer '%s': %w", id, err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+timeEntryColumns+` FROM time_entry WHERE id = $1`, id)

		entry, err = scanTimeEntry(row)
		if err != nil {
			return fmt.Errorf("error loading time entry '%s': %w", id, err)
		}

		return nil
	})
	if err != nil {
		return TimeEntry{}, err
	}

	log.Debug().Str("entry", id).Dur("duration", entry.Duration(time.Now())).Msg("stopped timer")

	return entry, nil
}
