// Package contactstore persists operator-managed fallback directory entries
// (local clinics, ration office, panchayat helpline) in PostgreSQL.
//
// Entries are loaded once at startup and appended to the built-in emergency
// directory; the request path never touches the database.
package contactstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/awaazpay/awaaz/internal/contact"
)

// Schema is the SQL DDL for the directory_contacts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS directory_contacts (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    phone       TEXT NOT NULL,
    upi_id      TEXT NOT NULL DEFAULT '',
    priority    INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_directory_contacts_priority ON directory_contacts(priority, id);
`

// Entry is one stored directory contact. Lower Priority values are tried
// first by the resolver.
type Entry struct {
	ID        string
	Name      string
	Phone     string
	UPIID     string
	Priority  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate reports every problem with the entry.
func (e *Entry) Validate() error {
	var errs []error
	if strings.TrimSpace(e.ID) == "" {
		errs = append(errs, errors.New("contactstore: id must not be empty"))
	}
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("contactstore: name must not be empty"))
	}
	if strings.TrimSpace(e.Phone) == "" {
		errs = append(errs, errors.New("contactstore: phone must not be empty"))
	}
	return errors.Join(errs...)
}

// Contact converts the entry to the resolver's value type.
func (e *Entry) Contact() contact.Contact {
	return contact.Contact{Name: e.Name, Phone: e.Phone, UPIID: e.UPIID}
}

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a directory store backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("contactstore: migrate: %w", err)
	}
	return nil
}

// Upsert creates or replaces a directory entry.
func (s *PostgresStore) Upsert(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO directory_contacts (id, name, phone, upi_id, priority)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			upi_id = EXCLUDED.upi_id,
			priority = EXCLUDED.priority,
			updated_at = now()
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		e.ID, strings.TrimSpace(e.Name), strings.TrimSpace(e.Phone), strings.TrimSpace(e.UPIID), e.Priority,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contactstore: upsert %q: %w", e.ID, err)
	}
	return nil
}

// Delete removes an entry by ID. Deleting a non-existent entry is not an
// error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM directory_contacts WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("contactstore: delete %q: %w", id, err)
	}
	return nil
}

// List returns every entry in resolution order (priority, then id).
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	const query = `
		SELECT id, name, phone, upi_id, priority, created_at, updated_at
		FROM directory_contacts
		ORDER BY priority, id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("contactstore: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.UPIID, &e.Priority, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("contactstore: list scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contactstore: list: %w", err)
	}
	return entries, nil
}

// Contacts returns the stored entries as resolver contacts, in resolution
// order.
func (s *PostgresStore) Contacts(ctx context.Context) ([]contact.Contact, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]contact.Contact, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].Contact())
	}
	return out, nil
}
