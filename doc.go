/*
Package lattice builds validated request-processing pipelines.

A pipeline is declared with a fluent, persistent builder: context values,
metadata, bind schemas, input schemas, output schemas and middleware are
recorded in order, and every call returns a new definition. Freezing a
definition with a terminal action yields an Action that can be invoked
concurrently.

# Concept

Each middleware sees exactly the declarations made before it. Context and
metadata are deep-merged; binds and input are validated right before the
first middleware that depends on them; output schemas wrap the chain from the
inside out. Failures never escape as Go errors: they are classified into
validation or server errors and serialized into the Response. Host signals
(redirects, not found) are the exception and are handed back to the caller.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/pipeline"
		"github.com/aretw0/lattice/pkg/schema"
	)

	func main() {
		app := lattice.New()

		fullName := app.Action(lattice.ActionConfig{Name: "full_name"}).
			Input(schema.Object(schema.Fields{
				"first_name": schema.String().Min(3),
				"last_name":  schema.String().Min(3),
			})).
			Action(func(ctx context.Context, p pipeline.ActionParams) (any, error) {
				in := p.Input.(map[string]any)
				return map[string]any{"full_name": in["first_name"].(string) + " " + in["last_name"].(string)}, nil
			})

		res, _ := fullName.Invoke(context.Background(), map[string]any{
			"first_name": "Ann",
			"last_name":  "Lee",
		})
		fmt.Println(res.OK, res.Output)
	}

Actions can be served over HTTP (pkg/adapters/http) or exposed as MCP tools
(pkg/adapters/mcp). Reusable middleware for request ids, logging, metrics,
tracing and rate limiting live in pkg/middleware.
*/
package lattice
