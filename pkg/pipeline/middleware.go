package pipeline

import (
	"context"

	"github.com/aretw0/lattice/pkg/merge"
)

// Overrides are merged into the run state by Next before the rest of the
// chain runs. Nil fields are ignored.
type Overrides struct {
	Context any
	Meta    any
	Binds   any
	Input   any
}

// NextFunc runs the remainder of the chain and returns the resulting state.
// Calling it more than once does not run the chain again.
type NextFunc func(ctx context.Context, overrides ...Overrides) *State

// Params is what a middleware receives.
type Params struct {
	Context any
	Meta    any
	Next    NextFunc

	state *State
}

// Handler is a middleware stage.
//
// A handler usually calls p.Next and returns the state it gets back. It may
// instead return its own state to short-circuit the chain, or an error to
// fail the run. Returning a nil state with a nil error keeps the current one.
type Handler interface {
	Handle(ctx context.Context, p Params) (*State, error)
}

// MiddlewareFunc adapts a function to Handler.
type MiddlewareFunc func(ctx context.Context, p Params) (*State, error)

func (f MiddlewareFunc) Handle(ctx context.Context, p Params) (*State, error) {
	return f(ctx, p)
}

// Factory is a reusable, named middleware that can be extended by others.
type Factory struct {
	name string
	fn   MiddlewareFunc
}

// NewMiddleware wraps fn into a Factory.
func NewMiddleware(fn MiddlewareFunc) *Factory {
	return &Factory{fn: fn}
}

// Named returns a copy of f with a name, used in logs and descriptions.
func (f *Factory) Named(name string) *Factory {
	return &Factory{name: name, fn: f.fn}
}

func (f *Factory) Name() string {
	return f.name
}

func (f *Factory) Handle(ctx context.Context, p Params) (*State, error) {
	return f.fn(ctx, p)
}

// Extends returns a middleware in which f runs first and fn runs inside f's
// continuation. Overrides that f hands to its Next are visible to fn, and
// fn's own Next continues with the rest of the chain.
func (f *Factory) Extends(fn MiddlewareFunc) *Factory {
	parent := f.fn
	return &Factory{
		name: f.name,
		fn: func(ctx context.Context, p Params) (*State, error) {
			return parent(ctx, Params{
				Context: p.Context,
				Meta:    p.Meta,
				state:   p.state,
				Next: func(ctx context.Context, overrides ...Overrides) *State {
					child := Params{
						Context: p.Context,
						Meta:    p.Meta,
						state:   p.state,
						Next: func(ctx context.Context, more ...Overrides) *State {
							return p.Next(ctx, append(append([]Overrides(nil), overrides...), more...)...)
						},
					}
					for _, o := range overrides {
						if o.Context != nil {
							child.Context = merge.Merge(child.Context, o.Context)
						}
						if o.Meta != nil {
							child.Meta = merge.Merge(child.Meta, o.Meta)
						}
					}

					st, err := fn(ctx, child)
					if st == nil {
						st = p.state
					}
					if st == nil {
						st = &State{OK: true}
					}
					if err != nil {
						st.fail(err)
					}
					return st
				},
			})
		},
	}
}

// handlerName returns the name of h if it has one.
func handlerName(h Handler) string {
	if n, ok := h.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
