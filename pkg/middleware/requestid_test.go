package middleware_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/middleware"
	"github.com/aretw0/lattice/pkg/pipeline"
)

func metaEcho(_ context.Context, p pipeline.ActionParams) (any, error) {
	return p.Meta, nil
}

func TestRequestID_Generates(t *testing.T) {
	act := pipeline.New().Use(middleware.RequestID()).Action(metaEcho)

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)

	id := middleware.MetaString(res.Output, middleware.RequestIDKey)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "request id %q should be a uuid", id)
}

func TestRequestID_KeepsDeclared(t *testing.T) {
	act := pipeline.New().
		Meta(map[string]any{middleware.RequestIDKey: "abc"}).
		Use(middleware.RequestID()).
		Action(metaEcho)

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", middleware.MetaString(res.Output, middleware.RequestIDKey))
}

func TestMetaString(t *testing.T) {
	assert.Equal(t, "", middleware.MetaString(nil, "x"))
	assert.Equal(t, "", middleware.MetaString(map[string]any{"x": 1}, "x"))
	assert.Equal(t, "v", middleware.MetaString(map[string]any{"x": "v"}, "x"))
}
