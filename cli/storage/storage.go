// Package storage selects and opens the contacts store from command line options.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	ds "github.com/oaiiae/phonebook/datastores"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Options struct {
	Mode             string        `doc:"development (in-memory store) or production (PostgreSQL store)" default:"development"`
	DatabaseURL      string        `doc:"PostgreSQL connection string used in production"                 default:"postgresql://localhost:5432/phonebook?sslmode=disable"`
	DatabaseMaxConns int           `doc:"maximum number of open database connections"                   default:"10"`
	DatabaseTimeout  time.Duration `doc:"time allowed to reach the database at startup"                 default:"10s"`
	Seed             bool          `doc:"seed the development store with sample contacts"               default:"true"`
	Migrate          bool          `doc:"create the contacts table at startup in production"            default:"true"`
}

// Backend is an opened contacts store and what /health reports about it.
type Backend struct {
	Store    ds.ContactsStore
	Mode     string
	Database string
	Close    func() error
}

// Sample returns the contacts seeded into the development store.
func Sample() []*ds.Contact {
	return []*ds.Contact{
		{Name: "山田 太郎", Phone: "090-1234-5678"},
		{Name: "佐藤 花子", Phone: "080-2345-6789"},
		{Name: "鈴木 一郎", Phone: "070-3456-7890"},
	}
}

// Open returns the store selected by options.Mode. In production the database
// is pinged, and migrated when options.Migrate is set.
func Open(ctx context.Context, options *Options) (*Backend, error) {
	switch strings.ToLower(options.Mode) {
	case ModeDevelopment:
		var seed []*ds.Contact
		if options.Seed {
			seed = Sample()
		}
		return &Backend{
			Store:    ds.NewContactsInmem(seed...),
			Mode:     ModeDevelopment,
			Database: "mock",
			Close:    func() error { return nil },
		}, nil

	case ModeProduction:
		store, db, err := OpenPostgres(ctx, options)
		if err != nil {
			return nil, err
		}
		if options.Migrate {
			if err := store.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Backend{Store: store, Mode: ModeProduction, Database: "postgres", Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown mode %q, expected %s or %s", options.Mode, ModeDevelopment, ModeProduction)
	}
}

// OpenPostgres opens the connection pool and checks the database answers.
func OpenPostgres(ctx context.Context, options *Options) (*ds.ContactsPostgres, *sqlx.DB, error) {
	db, err := sqlx.Open("postgres", options.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if options.DatabaseMaxConns > 0 {
		db.SetMaxOpenConns(options.DatabaseMaxConns)
		db.SetMaxIdleConns(options.DatabaseMaxConns)
	}

	if options.DatabaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.DatabaseTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return ds.NewContactsPostgres(db), db, nil
}
