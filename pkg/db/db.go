package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed base.sql
var baseSQL string

var (
	// ErrNotFound is returned when no row matches the given id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidProject is returned when a project fails validation.
	ErrInvalidProject = errors.New("invalid project")
	// ErrInvalidClient is returned when a client fails validation.
	ErrInvalidClient = errors.New("invalid client")
)

const projectColumns = `id, name, description, client_id, start_date, end_date, value, paid_value,
	payment_status, status, created_datetime`

// Database is the system of record for projects and clients.
type Database struct {
	conn *sql.DB
}

// NewDatabase connects to the sqlite database at the given filename and initializes the
// structure if not present.
func NewDatabase(ctx context.Context, filename string) (*Database, error) {
	conn, err := sql.Open("sqlite3", filename+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	// sqlite serializes writers anyway; a single connection avoids SQLITE_BUSY between handlers.
	conn.SetMaxOpenConns(1)

	database := Database{conn: conn}

	if err := database.initialize(ctx); err != nil {
		conn.Close()

		return nil, err
	}

	return &database, nil
}

func (d *Database) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := d.conn.ExecContext(ctx, baseSQL); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.conn.Close()
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs f in a transaction that is committed when f returns nil. With a single open
// connection nothing inside f may use d.conn directly.
func (d *Database) withTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warn().Err(rbErr).Msg("error rolling back transaction")
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var (
		project     Project
		description sql.NullString
		clientID    sql.NullString
		startDate   sql.NullTime
		endDate     sql.NullTime
	)

	err := row.Scan(&project.ID, &project.Name, &description, &clientID, &startDate, &endDate,
		&project.Value, &project.PaidValue, &project.PaymentStatus, &project.Status, &project.CreatedAt)
	if err != nil {
		return Project{}, err
	}

	project.Description = description.String
	project.ClientID = clientID.String

	if startDate.Valid {
		t := startDate.Time
		project.StartDate = &t
	}

	if endDate.Valid {
		t := endDate.Time
		project.EndDate = &t
	}

	return project, nil
}

// ListProjects returns every project, newest first.
func (d *Database) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM project ORDER BY created_datetime DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("error loading projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning project: %w", err)
		}

		projects = append(projects, project)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning projects: %w", err)
	}

	return projects, nil
}

// GetProject returns the project with the given id.
func (d *Database) GetProject(ctx context.Context, id string) (Project, error) {
	return getProject(ctx, d.conn, id)
}

func getProject(ctx context.Context, q querier, id string) (Project, error) {
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM project WHERE id = $1`, id)

	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("error loading project '%s': %w", id, ErrNotFound)
	}

	if err != nil {
		return Project{}, fmt.Errorf("error loading project '%s': %w", id, err)
	}

	return project, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clientExists(ctx context.Context, q querier, id string) (bool, error) {
	var count int

	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM client WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking client '%s': %w", id, err)
	}

	return count > 0, nil
}

func validateProject(ctx context.Context, q querier, p Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProject)
	}

	if p.Value < 0 {
		return fmt.Errorf("%w: value cannot be negative", ErrInvalidProject)
	}

	if p.PaidValue < 0 {
		return fmt.Errorf("%w: paid value cannot be negative", ErrInvalidProject)
	}

	if !p.Status.Valid() || !p.PaymentStatus.Valid() {
		return fmt.Errorf("%w: unknown status", ErrInvalidProject)
	}

	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidProject)
	}

	if p.ClientID != "" {
		found, err := clientExists(ctx, q, p.ClientID)
		if err != nil {
			return err
		}

		if !found {
			return fmt.Errorf("%w: client '%s' does not exist", ErrInvalidProject, p.ClientID)
		}
	}

	return nil
}

// CreateProject stores a new project and returns it with its id and creation time set.
func (d *Database) CreateProject(ctx context.Context, project Project) (Project, error) {
	project.ID = uuid.NewString()
	project.CreatedAt = time.Now().UTC()

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if err := validateProject(ctx, tx, project); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO project (`+projectColumns+`)
			     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			project.ID, project.Name, nullString(project.Description), nullString(project.ClientID),
			project.StartDate, project.EndDate, project.Value, project.PaidValue,
			project.PaymentStatus, project.Status, project.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("error adding project '%s': %w", project.Name, err)
		}

		return nil
	})
	if err != nil {
		return Project{}, err
	}

	log.Debug().Str("project", project.ID).Msgf("created project '%s'", project.Name)

	return project, nil
}

// UpdateProject writes the non-nil fields of patch to the project with the given id and
// returns the stored result. The read, the validation and the write share one transaction.
func (d *Database) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	var merged Project

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}

		merged = current

		if patch.Empty() {
			return nil
		}

		sets, args := applyPatch(&merged, patch)

		if err := validateProject(ctx, tx, merged); err != nil {
			return err
		}

		args = append(args, id)
		query := fmt.Sprintf(`UPDATE project SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

		if err := execOne(ctx, tx, query, args...); err != nil {
			return fmt.Errorf("error updating project '%s': %w", id, err)
		}

		return nil
	})
	if err != nil {
		return Project{}, err
	}

	return merged, nil
}

// applyPatch copies the set fields of patch into p and returns the matching SET clauses.
func applyPatch(p *Project, patch ProjectPatch) ([]string, []any) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		p.Name = *patch.Name
		set("name", p.Name)
	}

	if patch.Description != nil {
		p.Description = *patch.Description
		set("description", nullString(p.Description))
	}

	if patch.ClientID != nil {
		p.ClientID = *patch.ClientID
		set("client_id", nullString(p.ClientID))
	}

	if patch.StartDate != nil {
		p.StartDate = patch.StartDate
		set("start_date", p.StartDate)
	}

	if patch.EndDate != nil {
		p.EndDate = patch.EndDate
		set("end_date", p.EndDate)
	}

	if patch.Value != nil {
		p.Value = *patch.Value
		set("value", p.Value)
	}

	if patch.PaidValue != nil {
		p.PaidValue = *patch.PaidValue
		set("paid_value", p.PaidValue)
	}

	if patch.PaymentStatus != nil {
		p.PaymentStatus = *patch.PaymentStatus
		set("payment_status", p.PaymentStatus)
	}

	if patch.Status != nil {
		p.Status = *patch.Status
		set("status", p.Status)
	}

	return sets, args
}

// UpdateProjectStatus sets the status of the project with the given id. No other column is
// touched.
func (d *Database) UpdateProjectStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(status))
	}

	if err := execOne(ctx, d.conn, `UPDATE project SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("error changing status of project '%s' to %s: %w", id, status, err)
	}

	log.Debug().Str("project", id).Str("status", status.String()).Msg("changed project status")

	return nil
}

// MarkPaid marks the project as fully paid.
func (d *Database) MarkPaid(ctx context.Context, id string) error {
	err := execOne(ctx, d.conn, `UPDATE project SET payment_status = $1, paid_value = value WHERE id = $2`, PaymentPaid, id)
	if err != nil {
		return fmt.Errorf("error marking project '%s' as paid: %w", id, err)
	}

	return nil
}

// DeleteProject removes the project with the given id.
func (d *Database) DeleteProject(ctx context.Context, id string) error {
	if err := execOne(ctx, d.conn, `DELETE FROM project WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting project '%s': %w", id, err)
	}

	return nil
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, q querier, query string, args ...any) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
