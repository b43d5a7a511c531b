package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// TracerName is the instrumentation name used when no tracer is given.
const TracerName = "github.com/aretw0/lattice"

// Tracing wraps the rest of the chain in a span named after action.
// A nil tracer uses the global provider.
func Tracing(tracer trace.Tracer, action string) *pipeline.Factory {
	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		t := tracer
		if t == nil {
			t = otel.Tracer(TracerName)
		}

		ctx, span := t.Start(ctx, "lattice.action", trace.WithAttributes(
			attribute.String("lattice.action", action),
		))
		defer span.End()

		if id := MetaString(p.Meta, RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("lattice.request_id", id))
		}

		st := p.Next(ctx)

		span.SetAttributes(attribute.String("lattice.outcome", Outcome(st)))
		if !st.OK && st.Err != nil && Outcome(st) != "signal" {
			span.RecordError(st.Err)
			span.SetStatus(codes.Error, st.Err.Error())
		}
		return st, nil
	}).Named("tracing")
}
