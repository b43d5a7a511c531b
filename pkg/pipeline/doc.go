/*
Package pipeline builds and executes validated request-processing pipelines.

A Definition accumulates declarations in any order:

	def := pipeline.New(pipeline.WithName("users.create")).
		Context(map[string]any{"db": db}).
		Use(auth).
		Input(schema.Object(schema.Fields{"name": schema.String().Min(3)})).
		Output(schema.Object(schema.Fields{"id": schema.Int()}))

	create := def.Action(func(ctx context.Context, p pipeline.ActionParams) (any, error) {
		...
	})

	res, err := create.Invoke(ctx, map[string]any{"name": "Ann"})

Declarations made before a middleware are applied right before it runs, so
the middleware sees the context and metadata declared ahead of it and can
rely on input validated by the schemas declared ahead of it. Declarations
made after the last middleware are applied before the action.

Middleware call Next to run the rest of the chain, optionally handing it
overrides, and get the resulting State back. Output schemas wrap the chain
from the inside out: the ones declared last check the action's result first.

Failures never escape Invoke as errors. They end up in Response.Error,
classified as validation or server errors. Host signals (redirects, not
found) are the exception and are returned as the error unchanged.
*/
package pipeline
