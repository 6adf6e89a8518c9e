// Package contacts holds the phonebook rules that sit between the HTTP operations
// and a [datastores.ContactsStore].
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	ds "github.com/oaiiae/phonebook/datastores"
)

var (
	ErrValidation = errors.New("contacts: name and phone are required")
	ErrInvalidID  = errors.New("contacts: invalid id")
	ErrNotFound   = errors.New("contacts: not found")
)

type Service struct {
	Store ds.ContactsStore
}

func NewService(store ds.ContactsStore) *Service {
	return &Service{Store: store}
}

// ParseID parses a base 10 contact id. Anything else, including trailing garbage, is [ErrInvalidID].
func ParseID(text string) (ds.ContactID, error) {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, text)
	}
	return id, nil
}

func validate(name, phone string) error {
	if name == "" || phone == "" {
		return ErrValidation
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*ds.Contact, error) {
	return s.Store.List(ctx)
}

func (s *Service) Get(ctx context.Context, idText string) (*ds.Contact, error) {
	id, err := ParseID(idText)
	if err != nil {
		return nil, err
	}
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, name, phone string) (*ds.Contact, error) {
	if err := validate(name, phone); err != nil {
		return nil, err
	}
	return s.Store.Create(ctx, name, phone)
}

func (s *Service) Update(ctx context.Context, idText, name, phone string) (*ds.Contact, error) {
	id, err := ParseID(idText)
	if err != nil {
		return nil, err
	}
	if err := validate(name, phone); err != nil {
		return nil, err
	}
	c, err := s.Store.Update(ctx, id, name, phone)
	if err != nil {
		return nil, notFound(err, id)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, idText string) error {
	id, err := ParseID(idText)
	if err != nil {
		return err
	}
	removed, err := s.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// notFound translates the store's not found error and passes any other error through.
func notFound(err error, id ds.ContactID) error {
	if errors.Is(err, ds.ErrObjectNotFound) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return err
}
