package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// Mask replaces redacted values.
const Mask = "***"

// Redact masks the values of output record keys matching any of patterns,
// at any depth. The action's own value is copied, never modified.
func Redact(patterns ...string) (*pipeline.Factory, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}

	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		st := p.Next(ctx)
		if st.OK && len(compiled) > 0 {
			st.Output = mask(st.Output, compiled)
		}
		return st, nil
	}).Named("redact"), nil
}

func mask(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if matchAny(k, patterns) {
				out[k] = Mask
				continue
			}
			out[k] = mask(val, patterns)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = mask(val, patterns)
		}
		return out
	default:
		return v
	}
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
