// Package pages serves the HTML pages of the phonebook. The pages are static
// shells; the contacts are read and written by the browser through the API.
package pages

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/oaiiae/phonebook/contacts"
	ds "github.com/oaiiae/phonebook/datastores"
)

//go:embed templates/*.html
var files embed.FS

var (
	indexPage = parse("index.html")
	newPage   = parse("new.html")
	editPage  = parse("edit.html")
)

func parse(name string) *template.Template {
	return template.Must(template.ParseFS(files, "templates/layout.html", "templates/"+name)).Lookup(name)
}

type data struct {
	API string
	ID  ds.ContactID
}

// Pages renders the list, create and edit pages.
// API is the path of the contacts collection in the REST API.
type Pages struct {
	API    string
	Logger *slog.Logger
}

func (p *Pages) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", p.index)
	mux.HandleFunc("GET /new", p.create)
	mux.HandleFunc("GET /edit/{id}", p.edit)
}

func (p *Pages) index(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, indexPage, data{API: p.API})
}

func (p *Pages) create(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, newPage, data{API: p.API})
}

func (p *Pages) edit(w http.ResponseWriter, r *http.Request) {
	id, err := contacts.ParseID(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p.render(w, r, editPage, data{API: p.API, ID: id})
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, t *template.Template, d data) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, d); err != nil && p.Logger != nil {
		p.Logger.ErrorContext(r.Context(), "could not render page", "page", t.Name(), "err", err)
	}
}
