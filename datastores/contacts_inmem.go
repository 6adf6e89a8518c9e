package datastores

import (
	"context"
	"slices"
	"sync"
	"time"
)

// ContactsInmem implements [ContactsStore].
// Contacts are kept newest first and ids come from a counter that never goes back.
type ContactsInmem struct {
	mu       sync.Mutex
	lastID   ContactID
	contacts []*Contact

	now func() time.Time
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store holding cs, in the given order, with ids assigned from 1.
func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	s := &ContactsInmem{now: time.Now}
	now := s.now()
	s.contacts = make([]*Contact, 0, len(cs))
	for _, c := range cs {
		s.lastID++
		s.contacts = append(s.contacts, &Contact{
			ID:        s.lastID,
			Name:      c.Name,
			Phone:     c.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return s
}

func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := make([]*Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, clone(c))
	}
	return contacts, nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexOf(id)
	if index < 0 {
		return nil, ErrObjectNotFound
	}
	return clone(s.contacts[index]), nil
}

func (s *ContactsInmem) Create(_ context.Context, name, phone string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.lastID++
	c := &Contact{ID: s.lastID, Name: name, Phone: phone, CreatedAt: now, UpdatedAt: now}
	s.contacts = slices.Insert(s.contacts, 0, c)
	return clone(c), nil
}

func (s *ContactsInmem) Update(_ context.Context, id ContactID, name, phone string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexOf(id)
	if index < 0 {
		return nil, ErrObjectNotFound
	}
	c := s.contacts[index]
	c.Name, c.Phone = name, phone
	if now := s.now(); now.After(c.CreatedAt) {
		c.UpdatedAt = now
	} else {
		c.UpdatedAt = c.CreatedAt
	}
	return clone(c), nil
}

func (s *ContactsInmem) Delete(_ context.Context, id ContactID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexOf(id)
	if index < 0 {
		return false, nil
	}
	s.contacts = slices.Delete(s.contacts, index, index+1)
	return true, nil
}

func (s *ContactsInmem) Ping(_ context.Context) error { return nil }

// indexOf must be called with mu held.
func (s *ContactsInmem) indexOf(id ContactID) int {
	return slices.IndexFunc(s.contacts, func(c *Contact) bool { return c.ID == id })
}

func clone(c *Contact) *Contact { cc := *c; return &cc }
