package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/pkg/schema"
	"github.com/aretw0/lattice/pkg/sequence"
)

// Registration records a middleware together with how many declarations of
// each kind existed when it was added. Those offsets decide which
// declarations are applied before it runs.
type Registration struct {
	Handler Handler
	Name    string

	ContextOffset int
	MetaOffset    int
	BindsOffset   int
	InputOffset   int
	OutputOffset  int
}

// Definition accumulates declarations for a pipeline.
//
// Every method returns a new Definition and leaves the receiver untouched, so
// a base definition can be branched into several pipelines safely.
type Definition struct {
	name   string
	logger *slog.Logger

	contexts   sequence.Sequence[any]
	metas      sequence.Sequence[any]
	binds      sequence.Sequence[[]schema.Schema]
	inputs     sequence.Sequence[schema.Schema]
	outputs    sequence.Sequence[schema.Schema]
	middleware sequence.Sequence[Registration]
}

// New creates an empty Definition.
func New(opts ...Option) *Definition {
	d := &Definition{logger: discardLogger()}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = discardLogger()
	}
	return d
}

func (d *Definition) clone() *Definition {
	c := *d
	return &c
}

// Name returns the configured pipeline name.
func (d *Definition) Name() string {
	return d.name
}

// Named returns a copy with a different name.
func (d *Definition) Named(name string) *Definition {
	c := d.clone()
	c.name = name
	return c
}

// Context declares a context value, deep-merged over earlier ones.
func (d *Definition) Context(v any) *Definition {
	c := d.clone()
	c.contexts = d.contexts.Extend(v)
	return c
}

// Meta declares a metadata value, deep-merged over earlier ones.
func (d *Definition) Meta(v any) *Definition {
	c := d.clone()
	c.metas = d.metas.Extend(v)
	return c
}

// Binds declares the schemas of the next positional bind argument.
// The first call describes argument 0, the second argument 1 and so on.
func (d *Definition) Binds(group ...schema.Schema) *Definition {
	if len(group) == 0 {
		return d
	}
	c := d.clone()
	c.binds = d.binds.Extend(append([]schema.Schema(nil), group...))
	return c
}

// Input declares a schema for the input argument. All input schemas are
// checked and their outputs merged.
func (d *Definition) Input(s schema.Schema) *Definition {
	c := d.clone()
	c.inputs = d.inputs.Extend(s)
	return c
}

// Output declares a schema for the output. Later declarations are applied
// first.
func (d *Definition) Output(s schema.Schema) *Definition {
	c := d.clone()
	c.outputs = d.outputs.Prepend(s)
	return c
}

// Use appends a middleware stage.
func (d *Definition) Use(h Handler) *Definition {
	if h == nil {
		return d
	}
	name := handlerName(h)
	if name == "" {
		name = fmt.Sprintf("middleware#%d", d.middleware.Offset())
	}
	c := d.clone()
	c.middleware = d.middleware.Extend(Registration{
		Handler:       h,
		Name:          name,
		ContextOffset: d.contexts.Offset(),
		MetaOffset:    d.metas.Offset(),
		BindsOffset:   d.binds.Offset(),
		InputOffset:   d.inputs.Offset(),
		OutputOffset:  d.outputs.Offset(),
	})
	return c
}

// UseFunc is shorthand for Use(MiddlewareFunc(fn)).
func (d *Definition) UseFunc(fn MiddlewareFunc) *Definition {
	if fn == nil {
		return d
	}
	return d.Use(fn)
}

// Action freezes the definition around fn.
func (d *Definition) Action(fn ActionFunc) *Action {
	return &Action{def: d.clone(), fn: fn}
}
