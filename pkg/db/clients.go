package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientColumns = `id, name, company, email, phone, created_datetime`

func scanClient(row rowScanner) (Client, error) {
	var (
		client                Client
		company, email, phone sql.NullString
	)

	if err := row.Scan(&client.ID, &client.Name, &company, &email, &phone, &client.CreatedAt); err != nil {
		return Client{}, err
	}

	client.Company = company.String
	client.Email = email.String
	client.Phone = phone.String

	return client, nil
}

// ListClients returns every client ordered by name.
func (d *Database) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+clientColumns+` FROM client ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("error loading clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}

	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning client: %w", err)
		}

		clients = append(clients, client)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning clients: %w", err)
	}

	return clients, nil
}

// GetClient returns the client with the given id.
func (d *Database) GetClient(ctx context.Context, id string) (Client, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM client WHERE id = $1`, id)

	client, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, fmt.Errorf("error loading client '%s': %w", id, ErrNotFound)
	}

	if err != nil {
		return Client{}, fmt.Errorf("error loading client '%s': %w", id, err)
	}

	return client, nil
}

func validateClient(client Client) error {
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidClient)
	}

	return nil
}

// CreateClient stores a new client and returns it with its id and creation time set.
func (d *Database) CreateClient(ctx context.Context, client Client) (Client, error) {
	if err := validateClient(client); err != nil {
		return Client{}, err
	}

	client.ID = uuid.NewString()
	client.CreatedAt = time.Now().UTC()

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO client (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		client.ID, client.Name, nullString(client.Company), nullString(client.Email), nullString(client.Phone),
		client.CreatedAt,
	)
	if err != nil {
		return Client{}, fmt.Errorf("error adding client '%s': %w", client.Name, err)
	}

	log.Debug().Str("client", client.ID).Msgf("created client '%s'", client.Name)

	return client, nil
}

// UpdateClient replaces the contact details of the client with client.ID. Empty optional
// fields are cleared.
func (d *Database) UpdateClient(ctx context.Context, client Client) (Client, error) {
	if err := validateClient(client); err != nil {
		return Client{}, err
	}

	var updated Client

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx,
			`UPDATE client SET name = $1, company = $2, email = $3, phone = $4 WHERE id = $5`,
			client.Name, nullString(client.Company), nullString(client.Email), nullString(client.Phone), client.ID,
		)
		if err != nil {
			return fmt.Errorf("error updating client '%s': %w", client.ID, err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM client WHERE id = $1`, client.ID)

		updated, err = scanClient(row)
		if err != nil {
			return fmt.Errorf("error loading client '%s': %w", client.ID, err)
		}

		return nil
	})
	if err != nil {
		return Client{}, err
	}

	log.Debug().Str("client", client.ID).Msgf("updated client '%s'", client.Name)

	return updated, nil
}
