package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
	"github.com/aretw0/lattice/pkg/ports"
)

// KeyFunc derives the rate limiting key of a run.
type KeyFunc func(ctx context.Context, p pipeline.Params) string

// MetaKey keys runs by a string field of meta, falling back to "anonymous".
func MetaKey(field string) KeyFunc {
	return func(_ context.Context, p pipeline.Params) string {
		if v := MetaString(p.Meta, field); v != "" {
			return v
		}
		return "anonymous"
	}
}

// RateLimit fails runs with TOO_MANY_REQUESTS once limiter denies their key.
// Limiter errors fail the run with SERVICE_UNAVAILABLE.
func RateLimit(limiter ports.Limiter, key KeyFunc) *pipeline.Factory {
	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		k := key(ctx, p)
		d, err := limiter.Allow(ctx, k)
		if err != nil {
			return nil, domain.WrapServerError(domain.CodeServiceUnavailable, fmt.Errorf("rate limiter: %w", err))
		}
		if !d.Allowed {
			return nil, domain.NewServerError(domain.CodeTooManyRequests, "")
		}
		return p.Next(ctx), nil
	}).Named("rate_limit")
}
