package pipeline

import (
	"io"
	"log/slog"
)

// Option configures a Definition.
type Option func(*Definition)

// WithLogger configures the structured logger used by the executor.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Definition) {
		d.logger = logger
	}
}

// WithName sets the name reported in logs, metrics and descriptions.
func WithName(name string) Option {
	return func(d *Definition) {
		d.name = name
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
