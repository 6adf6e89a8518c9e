package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/phonebook/cli/api"
	"github.com/oaiiae/phonebook/cli/logger"
	"github.com/oaiiae/phonebook/cli/storage"
)

// Set with -ldflags "-X main.version=... -X main.revision=... -X main.created=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

type (
	LoggerOptions = logger.Options
	StoreOptions  = storage.Options
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	LoggerOptions
	api.ServerOptions
	api.RouterOptions
	StoreOptions
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		var lifecycle api.Lifecycle

		serve := func(log *slog.Logger) error {
			backend, err := storage.Open(context.Background(), &options.StoreOptions)
			if err != nil {
				log.Error("could not open the store", "mode", options.Mode, "err", err)
				return err
			}
			defer backend.Close()

			srv := api.NewServer(&options.ServerOptions,
				api.NewRouter(&options.RouterOptions, api.BuildInfo{
					Title:    "Phonebook API",
					Version:  version,
					Revision: revision,
					Created:  created,
				}, backend, log),
				log,
			)
			log.Info("listening", "addr", srv.Addr, "mode", backend.Mode, "database", backend.Database)
			if err := lifecycle.Serve(srv); err != nil {
				log.Error("failed to listen and serve", "err", err)
				return err
			}
			log.Info("server closed")
			return nil
		}

		hooks.OnStart(func() {
			log, closeLog := logger.New(&options.LoggerOptions)
			err := serve(log)
			_ = closeLog()
			if err != nil {
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
			defer cancel()
			if err := lifecycle.Stop(ctx); err != nil {
				slog.Warn("could not shutdown the server", "err", err)
			}
		})
	})

	cli.Root().Use = "phonebook"
	cli.Root().Version = version
	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the contacts table and its index in the database, then exit",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			log, closeLog := logger.New(&options.LoggerOptions)
			err := migrate(cmd.Context(), &options.StoreOptions)
			if err != nil {
				log.Error("migration failed", "err", err)
			} else {
				log.Info("migration completed")
			}
			_ = closeLog()
			if err != nil {
				os.Exit(1)
			}
		}),
	})

	cli.Run()
}

func migrate(ctx context.Context, options *storage.Options) error {
	store, db, err := storage.OpenPostgres(ctx, options)
	if err != nil {
		return err
	}
	defer db.Close()
	return store.Migrate(ctx)
}
