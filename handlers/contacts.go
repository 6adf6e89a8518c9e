package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/phonebook/contacts"
	ds "github.com/oaiiae/phonebook/datastores"
)

type Contacts struct {
	Service      *contacts.Service
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID        ds.ContactID `json:"id"         readOnly:"true" example:"1"`
	Name      string       `json:"name"                       example:"山田 太郎"`
	Phone     string       `json:"phone"                      example:"090-1234-5678"`
	CreatedAt time.Time    `json:"created_at" readOnly:"true"`
	UpdatedAt time.Time    `json:"updated_at" readOnly:"true"`
}

// ContactInput is the request body of create and update. Both fields are
// checked by [contacts.Service] so that a missing or null field is a 400, not a schema error.
type ContactInput struct {
	_     struct{} `json:"-" additionalProperties:"true"`
	Name  *string  `json:"name,omitempty"  nullable:"true" example:"山田 太郎"      doc:"Contact name"`
	Phone *string  `json:"phone,omitempty" nullable:"true" example:"090-1234-5678" doc:"Contact phone number"`
}

// fields returns the name and phone, null and absent both being empty.
func (in *ContactInput) fields() (name, phone string) {
	if in.Name != nil {
		name = *in.Name
	}
	if in.Phone != nil {
		phone = *in.Phone
	}
	return name, phone
}

type contactIDInput struct {
	ID string `path:"id" example:"1" doc:"ID of the contact"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// contactError maps service errors to responses. failure is the message of the 500 response.
func contactError(err error, failure string) error {
	switch {
	case errors.Is(err, contacts.ErrInvalidID):
		return NewError(http.StatusBadRequest, "Invalid contact id", err)
	case errors.Is(err, contacts.ErrValidation):
		return NewError(http.StatusBadRequest, "Name and phone are required", err)
	case errors.Is(err, contacts.ErrNotFound):
		return NewError(http.StatusNotFound, "Contact not found", err)
	default:
		return NewError(http.StatusInternalServerError, failure, err)
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts",
		reported(h.list, h.ErrorHandler),
		withErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	list, err := h.Service.List(ctx)
	if err != nil {
		return nil, contactError(err, "Failed to fetch contacts")
	}

	body := make([]ContactModel, 0, len(list))
	for _, contact := range list {
		body = append(body, contactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/{id}",
		reported(h.get, h.ErrorHandler),
		withErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *contactIDInput) (*ContactOutput, error) {
	contact, err := h.Service.Get(ctx, input.ID)
	if err != nil {
		return nil, contactError(err, "Failed to fetch contact")
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPost(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts",
		reported(h.post, h.ErrorHandler),
		withStatus(http.StatusCreated),
		withErrors(http.StatusBadRequest, http.StatusInternalServerError),
	)
}

func (h *Contacts) post(ctx context.Context, input *struct {
	Body ContactInput
}) (*ContactOutput, error) {
	name, phone := input.Body.fields()
	contact, err := h.Service.Create(ctx, name, phone)
	if err != nil {
		return nil, contactError(err, "Failed to create contact")
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/contacts/{id}",
		reported(h.put, h.ErrorHandler),
		withErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   string `path:"id" example:"1" doc:"ID of the contact to update"`
	Body ContactInput
}) (*ContactOutput, error) {
	name, phone := input.Body.fields()
	contact, err := h.Service.Update(ctx, input.ID, name, phone)
	if err != nil {
		return nil, contactError(err, "Failed to update contact")
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/contacts/{id}",
		reported(h.del, h.ErrorHandler),
		withErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message" example:"Contact deleted successfully"`
	}
}

func (h *Contacts) del(ctx context.Context, input *contactIDInput) (*MessageOutput, error) {
	if err := h.Service.Delete(ctx, input.ID); err != nil {
		return nil, contactError(err, "Failed to delete contact")
	}
	out := &MessageOutput{}
	out.Body.Message = "Contact deleted successfully"
	return out, nil
}
