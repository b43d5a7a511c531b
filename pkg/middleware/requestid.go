package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// RequestIDKey is the meta field carrying the request id.
const RequestIDKey = "requestId"

// RequestID makes sure meta carries a request id, generating a UUID when the
// caller did not declare one.
func RequestID() *pipeline.Factory {
	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		if id := MetaString(p.Meta, RequestIDKey); id != "" {
			return p.Next(ctx), nil
		}
		return p.Next(ctx, pipeline.Overrides{
			Meta: map[string]any{RequestIDKey: uuid.NewString()},
		}), nil
	}).Named("request_id")
}

// MetaString reads a string field from a meta record.
func MetaString(meta any, field string) string {
	m, ok := meta.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[field].(string)
	return s
}
