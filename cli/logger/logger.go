package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level  string `doc:"log from debug, info, warn or error"`
	File   string `doc:"append logs to file"`
	Format string `doc:"format logs as text or json"         default:"text"`
	Source bool   `doc:"add source file and line to logs"`
}

func nopClose() error { return nil }

// New builds a logger from options and returns a function closing its output.
// Invalid options fall back to their defaults, and the fallback is logged as a
// warning on the returned logger.
func New(options *Options) (*slog.Logger, func() error) {
	var level slog.Leveler
	if options.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(options.Level)); err != nil {
			options.Level = ""
			logger, closer := New(options)
			logger.Warn("could not parse logger level", "err", err)
			return logger, closer
		}
		level = l
	}
	opts := slog.HandlerOptions{Level: level, AddSource: options.Source}

	var output io.Writer = os.Stdout
	closer := nopClose
	switch options.File {
	case "", "-":
	case os.DevNull:
		return slog.New(slog.DiscardHandler), nopClose
	default:
		f, err := os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			options.File = ""
			logger, closer := New(options)
			logger.Warn("could not open logger file", "err", err)
			return logger, closer
		}
		output, closer = f, f.Close
	}

	switch strings.ToLower(options.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, &opts)), closer
	case "text":
		return slog.New(slog.NewTextHandler(output, &opts)), closer
	default:
		_ = closer()
		options.Format = "text"
		logger, closer := New(options)
		logger.Warn("could not parse logger format")
		return logger, closer
	}
}
