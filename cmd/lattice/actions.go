package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/middleware"
	"github.com/aretw0/lattice/pkg/pipeline"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/schema"
)

// stack carries the shared middleware every served action is wrapped in.
type stack struct {
	logger  *slog.Logger
	metrics *middleware.Metrics
	tracing bool
	limiter ports.Limiter
	keyMeta string
	redact  *pipeline.Factory
}

func (s stack) wrap(def *pipeline.Definition) *pipeline.Definition {
	name := def.Name()
	def = def.Use(middleware.RequestID())
	if s.tracing {
		def = def.Use(middleware.Tracing(nil, name))
	}
	if s.metrics != nil {
		def = def.Use(s.metrics.Middleware(name))
	}
	def = def.Use(middleware.Logging(s.logger))
	if s.redact != nil {
		def = def.Use(s.redact)
	}
	if s.limiter != nil {
		def = def.Use(middleware.RateLimit(s.limiter, middleware.MetaKey(s.keyMeta)))
	}
	return def
}

type person struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// buildActions registers the built-in demo actions followed by the echo
// actions of cfg.
func buildActions(cfg config.Config, s stack) (*registry.Registry, error) {
	app := lattice.New(lattice.WithLogger(s.logger))

	fullName := s.wrap(app.Action(lattice.ActionConfig{Name: "people.full_name"})).
		Input(schema.Object(schema.Fields{
			"first_name": schema.String().Min(3),
			"last_name":  schema.String().Min(3),
		})).
		Output(schema.Object(schema.Fields{"full_name": schema.String()})).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			in, err := pipeline.Decode[person](p.Input)
			if err != nil {
				return nil, err
			}
			return map[string]any{"full_name": in.FirstName + " " + in.LastName}, nil
		})

	getUser := s.wrap(app.Action(lattice.ActionConfig{Name: "users.get"})).
		Binds(schema.String().Min(1)).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			id := p.Binds[0].(string)
			switch id {
			case "0":
				return nil, domain.NotFound()
			case "teapot":
				return nil, domain.NewServerError(domain.CodeTeapot, "")
			}
			return map[string]any{"id": id, "name": "user " + id}, nil
		})

	login := s.wrap(app.Action(lattice.ActionConfig{Name: "auth.login"})).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return nil, domain.Redirect("/actions", 0)
		})

	reg := registry.NewRegistry()
	if err := reg.Register(fullName, getUser, login); err != nil {
		return nil, err
	}
	for _, decl := range cfg.Actions {
		a, err := echoAction(app, s, decl)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", decl.Name, err)
		}
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// echoAction returns its validated binds and input.
func echoAction(app *lattice.Lattice, s stack, decl config.ActionDecl) (*pipeline.Action, error) {
	def := s.wrap(app.Action(lattice.ActionConfig{Name: decl.Name, Meta: decl.Meta}))

	for i, expr := range decl.Binds {
		typ, err := schema.ParseType(strings.TrimSpace(expr))
		if err != nil {
			return nil, fmt.Errorf("bind %d: %w", i, err)
		}
		def = def.Binds(typ)
	}
	if len(decl.Input) > 0 {
		in, err := schema.FromMap(decl.Input)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		def = def.Input(in)
	}

	return def.Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
		return map[string]any{"binds": p.Binds, "input": p.Input}, nil
	}), nil
}
