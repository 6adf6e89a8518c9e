package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaiiae/phonebook/contacts"
	ds "github.com/oaiiae/phonebook/datastores"
)

func TestMain(m *testing.M) {
	huma.NewError = NewError
	os.Exit(m.Run())
}

func newTestAPI(t *testing.T, servers ...any) humatest.TestAPI {
	t.Helper()
	config := huma.DefaultConfig("Phonebook", "test")
	config.CreateHooks = nil
	_, api := humatest.New(t, config)
	for _, server := range servers {
		huma.AutoRegister(api, server)
	}
	return api
}

func seededStore() *ds.ContactsInmem {
	return ds.NewContactsInmem(
		&ds.Contact{Name: "山田 太郎", Phone: "090-1234-5678"},
		&ds.Contact{Name: "佐藤 花子", Phone: "080-2345-6789"},
		&ds.Contact{Name: "鈴木 一郎", Phone: "070-3456-7890"},
	)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func errorBody(t *testing.T, body []byte) string {
	t.Helper()
	return decode[map[string]string](t, body)["error"]
}

func TestContacts_List(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)

	list := decode[[]ContactModel](t, resp.Body.Bytes())
	require.Len(t, list, 3)
	assert.Equal(t, "山田 太郎", list[0].Name)
}

func TestContacts_ListEmpty(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(ds.NewContactsInmem())})

	resp := api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestContacts_CreateThenGet(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Post("/contacts", map[string]any{"name": "山田 太郎", "phone": "090-1234-5678"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[ContactModel](t, resp.Body.Bytes())
	assert.Equal(t, ds.ContactID(4), created.ID)
	assert.Equal(t, "山田 太郎", created.Name)
	assert.Equal(t, "090-1234-5678", created.Phone)
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	resp = api.Get("/contacts/4")
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[ContactModel](t, resp.Body.Bytes())
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	fields := decode[map[string]any](t, resp.Body.Bytes())
	assert.ElementsMatch(t, []string{"id", "name", "phone", "created_at", "updated_at"}, keys(fields))
}

func keys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func TestContacts_CreateMissingFields(t *testing.T) {
	store := seededStore()
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(store)})

	for _, body := range []map[string]any{
		{"name": "", "phone": "090"},
		{"name": "山田 太郎"},
		{"phone": "090"},
		{"name": nil, "phone": "090"},
		{"name": "山田 太郎", "phone": nil},
		{},
	} {
		resp := api.Post("/contacts", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.Equal(t, "Name and phone are required", errorBody(t, resp.Body.Bytes()))
	}

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestContacts_CreateMalformedBody(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Post("/contacts", "Content-Type: application/json", strings.NewReader(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NotEmpty(t, errorBody(t, resp.Body.Bytes()))

	resp = api.Post("/contacts", map[string]any{"name": 5, "phone": "090"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NotEmpty(t, errorBody(t, resp.Body.Bytes()))
}

func TestContacts_CreateIgnoresUnknownFields(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Post("/contacts", map[string]any{"name": "a", "phone": "1", "email": "a@example.com"})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestContacts_GetErrors(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Get("/contacts/abc")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid contact id", errorBody(t, resp.Body.Bytes()))

	resp = api.Get("/contacts/9999")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Contact not found", errorBody(t, resp.Body.Bytes()))
}

func TestContacts_Update(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})
	before := decode[ContactModel](t, api.Get("/contacts/2").Body.Bytes())

	resp := api.Put("/contacts/2", map[string]any{"name": "A", "phone": "1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := decode[ContactModel](t, api.Get("/contacts/2").Body.Bytes())
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "1", got.Phone)
	assert.True(t, before.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.UpdatedAt.Before(before.UpdatedAt))
}

func TestContacts_UpdateErrors(t *testing.T) {
	store := seededStore()
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(store)})
	before, err := store.List(context.Background())
	require.NoError(t, err)

	resp := api.Put("/contacts/9999", map[string]any{"name": "A", "phone": "1"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Contact not found", errorBody(t, resp.Body.Bytes()))

	resp = api.Put("/contacts/1", map[string]any{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Name and phone are required", errorBody(t, resp.Body.Bytes()))

	resp = api.Put("/contacts/1", map[string]any{"name": nil, "phone": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Name and phone are required", errorBody(t, resp.Body.Bytes()))

	resp = api.Put("/contacts/one", map[string]any{"name": "A", "phone": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid contact id", errorBody(t, resp.Body.Bytes()))

	after, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestContacts_Delete(t *testing.T) {
	api := newTestAPI(t, &Contacts{Service: contacts.NewService(seededStore())})

	resp := api.Delete("/contacts/1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"Contact deleted successfully"}`, resp.Body.String())

	assert.Equal(t, http.StatusNotFound, api.Get("/contacts/1").Code)
	assert.Len(t, decode[[]ContactModel](t, api.Get("/contacts").Body.Bytes()), 2)

	resp = api.Delete("/contacts/1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Contact not found", errorBody(t, resp.Body.Bytes()))

	resp = api.Delete("/contacts/abc")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// brokenStore fails every operation like an unreachable database.
type brokenStore struct{}

var errBroken = errors.Join(ds.ErrStorage, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

func (brokenStore) List(context.Context) ([]*ds.Contact, error) { return nil, errBroken }
func (brokenStore) Get(context.Context, ds.ContactID) (*ds.Contact, error) { return nil, errBroken }
func (brokenStore) Create(context.Context, string, string) (*ds.Contact, error) {
	return nil, errBroken
}
func (brokenStore) Update(context.Context, ds.ContactID, string, string) (*ds.Contact, error) {
	return nil, errBroken
}
func (brokenStore) Delete(context.Context, ds.ContactID) (bool, error) { return false, errBroken }
func (brokenStore) Ping(context.Context) error { return errBroken }

func TestContacts_StorageFailure(t *testing.T) {
	var logged []error
	api := newTestAPI(t, &Contacts{
		Service:      contacts.NewService(brokenStore{}),
		ErrorHandler: func(_ context.Context, err error) { logged = append(logged, err) },
	})

	for _, tc := range []struct {
		resp    *http.Response
		message string
	}{
		{api.Get("/contacts").Result(), "Failed to fetch contacts"},
		{api.Get("/contacts/1").Result(), "Failed to fetch contact"},
		{api.Post("/contacts", map[string]any{"name": "a", "phone": "1"}).Result(), "Failed to create contact"},
		{api.Put("/contacts/1", map[string]any{"name": "a", "phone": "1"}).Result(), "Failed to update contact"},
		{api.Delete("/contacts/1").Result(), "Failed to delete contact"},
	} {
		assert.Equal(t, http.StatusInternalServerError, tc.resp.StatusCode)
		var body map[string]string
		require.NoError(t, json.NewDecoder(tc.resp.Body).Decode(&body))
		assert.Equal(t, map[string]string{"error": tc.message}, body)
	}

	require.Len(t, logged, 5)
	for _, err := range logged {
		assert.ErrorIs(t, err, ds.ErrStorage)
		assert.ErrorContains(t, err, "connection refused")
	}
}
