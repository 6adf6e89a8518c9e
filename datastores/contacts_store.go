package datastores

import (
	"context"
	"errors"
	"time"
)

type (
	ContactID = int64
	Contact   struct {
		ID        ContactID `db:"id"`
		Name      string    `db:"name"`
		Phone     string    `db:"phone"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
)

// ContactsStore owns the authoritative collection of contacts.
type ContactsStore interface {
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Create(ctx context.Context, name, phone string) (*Contact, error)
	Update(ctx context.Context, id ContactID, name, phone string) (*Contact, error)
	Delete(context.Context, ContactID) (bool, error)
	Ping(context.Context) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrStorage        = errors.New("store: storage failure")
)
