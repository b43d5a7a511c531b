package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/middleware"
	"github.com/aretw0/lattice/pkg/pipeline"
)

func TestRedact(t *testing.T) {
	redact, err := middleware.Redact("password", "^ssn")
	require.NoError(t, err)

	original := map[string]any{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
		"history": []any{map[string]any{"password": "old"}},
	}

	act := pipeline.New().
		Use(redact).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return original, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.OK)

	assert.Equal(t, map[string]any{
		"username":      "jdoe",
		"user_password": middleware.Mask,
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": middleware.Mask,
		},
		"history": []any{map[string]any{"password": middleware.Mask}},
	}, res.Output)

	assert.Equal(t, "secret123", original["user_password"], "action value must not be modified")
}

func TestRedact_InvalidPattern(t *testing.T) {
	_, err := middleware.Redact("(")
	assert.ErrorContains(t, err, `redact pattern "("`)
}
