package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
)

// Logging logs every run that passes through it once the rest of the chain
// has finished.
func Logging(logger *slog.Logger) *pipeline.Factory {
	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		start := time.Now()
		st := p.Next(ctx)

		attrs := []any{
			"duration", time.Since(start),
			"ok", st.OK,
		}
		if id := MetaString(st.Meta, RequestIDKey); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		switch {
		case st.OK:
			logger.InfoContext(ctx, "Action completed", attrs...)
		case domain.KindOf(st.Err) == domain.KindSignal:
			logger.InfoContext(ctx, "Action signalled host", append(attrs, "signal", st.Err)...)
		default:
			logger.WarnContext(ctx, "Action failed", append(attrs, "kind", domain.KindOf(st.Err).String(), "error", st.Err)...)
		}
		return st, nil
	}).Named("logging")
}
