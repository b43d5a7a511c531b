package lattice

import (
	"log/slog"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// Lattice is the entry point for declaring actions. It carries the settings
// shared by every pipeline it creates.
type Lattice struct {
	logger *slog.Logger
	opts   []pipeline.Option
}

// Option defines a functional option for configuring a Lattice.
type Option func(*Lattice)

// WithLogger sets the structured logger handed to every pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lattice) {
		l.logger = logger
	}
}

// WithPipelineOptions appends options applied to every pipeline.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(l *Lattice) {
		l.opts = append(l.opts, opts...)
	}
}

// New creates a Lattice.
func New(opts ...Option) *Lattice {
	l := &Lattice{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ActionConfig seeds a new pipeline. Context and Meta, when set, become its
// first context and metadata declarations.
type ActionConfig struct {
	Name    string
	Context any
	Meta    any
}

// Action starts a new pipeline definition.
func (l *Lattice) Action(cfg ActionConfig) *pipeline.Definition {
	opts := make([]pipeline.Option, 0, len(l.opts)+2)
	if l.logger != nil {
		opts = append(opts, pipeline.WithLogger(l.logger))
	}
	if cfg.Name != "" {
		opts = append(opts, pipeline.WithName(cfg.Name))
	}
	opts = append(opts, l.opts...)

	def := pipeline.New(opts...)
	if cfg.Context != nil {
		def = def.Context(cfg.Context)
	}
	if cfg.Meta != nil {
		def = def.Meta(cfg.Meta)
	}
	return def
}
