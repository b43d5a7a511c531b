package pipeline

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/merge"
	"github.com/aretw0/lattice/pkg/schema"
)

// Validate checks value against every schema, without stopping at the first
// failure. Successful outputs are deep-merged in schema order. If any schema
// reports issues, all of them are returned in a *domain.ValidationError.
// With no schemas the value is returned as is.
func Validate(ctx context.Context, value any, schemas ...schema.Schema) (any, error) {
	if len(schemas) == 0 {
		return value, nil
	}

	var (
		out    any
		issues []schema.Issue
	)
	for _, s := range schemas {
		if s == nil {
			continue
		}
		res := s.Validate(ctx, value)
		if !res.Success {
			issues = append(issues, res.Issues...)
			continue
		}
		out = merge.Merge(out, res.Data)
	}

	if len(issues) > 0 {
		return nil, domain.NewValidationError(issues...)
	}
	return out, nil
}
