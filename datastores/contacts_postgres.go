package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
)

// ContactsPostgres implements [ContactsStore] on the contacts table.
// Every method runs a single auto-committed statement on a pooled connection.
type ContactsPostgres struct {
	db *sqlx.DB
}

var _ ContactsStore = (*ContactsPostgres)(nil)

func NewContactsPostgres(db *sqlx.DB) *ContactsPostgres {
	return &ContactsPostgres{db: db}
}

const contactColumns = `id, name, phone, created_at, updated_at`

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name)`,
}

// Migrate creates the contacts table and its name index. It is safe to run repeatedly.
func (s *ContactsPostgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storageErr("migrate", err)
		}
	}
	return nil
}

func (s *ContactsPostgres) List(ctx context.Context) ([]*Contact, error) {
	contacts := []*Contact{}
	err := s.db.SelectContext(ctx, &contacts,
		`SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("list", err)
	}
	return contacts, nil
}

// storable reports whether id fits the SERIAL (int4) id column. Other ids cannot exist.
func storable(id ContactID) bool {
	return id >= math.MinInt32 && id <= math.MaxInt32
}

func (s *ContactsPostgres) Get(ctx context.Context, id ContactID) (*Contact, error) {
	if !storable(id) {
		return nil, ErrObjectNotFound
	}
	var c Contact
	err := s.db.GetContext(ctx, &c, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	if err != nil {
		return nil, storageErr("get", err)
	}
	return &c, nil
}

func (s *ContactsPostgres) Create(ctx context.Context, name, phone string) (*Contact, error) {
	var c Contact
	err := s.db.GetContext(ctx, &c,
		`INSERT INTO contacts (name, phone) VALUES ($1, $2) RETURNING `+contactColumns, name, phone)
	if err != nil {
		return nil, storageErr("create", err)
	}
	return &c, nil
}

func (s *ContactsPostgres) Update(ctx context.Context, id ContactID, name, phone string) (*Contact, error) {
	if !storable(id) {
		return nil, ErrObjectNotFound
	}
	var c Contact
	err := s.db.GetContext(ctx, &c,
		`UPDATE contacts SET name = $1, phone = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 RETURNING `+contactColumns, name, phone, id)
	if err != nil {
		return nil, storageErr("update", err)
	}
	return &c, nil
}

func (s *ContactsPostgres) Delete(ctx context.Context, id ContactID) (bool, error) {
	if !storable(id) {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete", err)
	}
	return n > 0, nil
}

func (s *ContactsPostgres) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// storageErr maps "no rows" to [ErrObjectNotFound] and wraps everything else with [ErrStorage].
func storageErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
