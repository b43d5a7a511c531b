package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
	"github.com/aretw0/lattice/pkg/schema"
)

// tag is a schema that records the order in which it was applied.
type tag string

func (t tag) Name() string { return string(t) }

func (t tag) Validate(_ context.Context, _ any) schema.Result {
	return schema.Ok(map[string]any{"order": []string{string(t)}})
}

func echo(field string) pipeline.ActionFunc {
	return func(_ context.Context, p pipeline.ActionParams) (any, error) {
		switch field {
		case "context":
			return p.Context, nil
		case "meta":
			return p.Meta, nil
		case "binds":
			return p.Binds, nil
		default:
			return p.Input, nil
		}
	}
}

func passthrough(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
	return p.Next(ctx), nil
}

func TestAction_FullNameScenario(t *testing.T) {
	person := schema.Object(schema.Fields{
		"first_name": schema.String().Min(3),
		"last_name":  schema.String().Min(3),
	})

	fullName := pipeline.New().
		Input(person).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			in := p.Input.(map[string]any)
			return map[string]any{"full_name": in["first_name"].(string) + " " + in["last_name"].(string)}, nil
		})

	res, err := fullName.Invoke(context.Background(), map[string]any{"first_name": "Al", "last_name": "Smith"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Nil(t, res.Output)
	require.NotNil(t, res.Error)
	assert.Equal(t, "ValidationError", res.Error.Name)
	assert.Equal(t, []schema.Issue{{
		Message: "String must contain at least 3 character(s)",
		Path:    []any{"first_name"},
	}}, res.Error.Issues)

	res, err = fullName.Invoke(context.Background(), map[string]any{"first_name": "Ann", "last_name": "Lee"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Nil(t, res.Error)
	assert.Equal(t, map[string]any{"full_name": "Ann Lee"}, res.Output)
}

func TestAction_MiddlewareMetaOverride(t *testing.T) {
	act := pipeline.New().
		Meta(map[string]any{"requestId": "initial", "source": "test"}).
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			return p.Next(ctx, pipeline.Overrides{Meta: map[string]any{"requestId": "abc"}}), nil
		}).
		Action(echo("meta"))

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, map[string]any{"requestId": "abc", "source": "test"}, res.Output)
}

func TestAction_ContextMergeOrder(t *testing.T) {
	act := pipeline.New().
		Context(map[string]any{"a": 1, "tags": []string{"x"}, "nested": map[string]any{"k": 1}}).
		Context(map[string]any{"a": 2, "tags": []string{"y"}, "nested": map[string]any{"j": 2}}).
		Action(echo("context"))

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":      2,
		"tags":   []string{"x", "y"},
		"nested": map[string]any{"k": 1, "j": 2},
	}, res.Output)
}

func TestAction_DeclarationsApplyAtTheirStage(t *testing.T) {
	var seen any
	act := pipeline.New().
		Context(map[string]any{"a": 1}).
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			seen = p.Context
			return p.Next(ctx), nil
		}).
		Context(map[string]any{"b": 2}).
		Action(echo("context"))

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, seen)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, res.Output)
}

func TestAction_SignalPassthrough(t *testing.T) {
	sig := domain.Redirect("/login", 0)

	fromAction := pipeline.New().
		UseFunc(passthrough).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return nil, sig
		})

	res, err := fromAction.Invoke(context.Background(), nil)
	assert.Nil(t, res)
	assert.Same(t, sig, err)

	fromMiddleware := pipeline.New().
		UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
			return nil, fmt.Errorf("guard: %w", domain.NotFound())
		}).
		Action(echo("input"))

	res, err = fromMiddleware.Invoke(context.Background(), nil)
	assert.Nil(t, res)
	var got *domain.Signal
	require.ErrorAs(t, err, &got)
	assert.Equal(t, domain.NotFoundPayload{}, got.Payload)
}

func TestAction_OutputCompositionOrder(t *testing.T) {
	act := pipeline.New().
		Output(tag("A")).
		UseFunc(passthrough).
		Output(tag("B")).
		Output(tag("C")).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return map[string]any{}, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.OK, "error: %+v", res.Error)
	assert.Equal(t, map[string]any{"order": []string{"C", "B", "A"}}, res.Output)
}

func TestAction_OutputValidationFailure(t *testing.T) {
	act := pipeline.New().
		Output(schema.Object(schema.Fields{"id": schema.Int()})).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return map[string]any{"id": "nope"}, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "ValidationError", res.Error.Name)
	assert.Equal(t, []any{"id"}, res.Error.Issues[0].Path)
}

func TestAction_InputIssuesAggregateInSchemaOrder(t *testing.T) {
	act := pipeline.New().
		Input(schema.Object(schema.Fields{"b": schema.String()})).
		Input(schema.Object(schema.Fields{"a": schema.String()})).
		Action(echo("input"))

	res, err := act.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Len(t, res.Error.Issues, 2)
	assert.Equal(t, []any{"b"}, res.Error.Issues[0].Path)
	assert.Equal(t, []any{"a"}, res.Error.Issues[1].Path)
}

func TestAction_FenceFailureSkipsMiddleware(t *testing.T) {
	called := false
	act := pipeline.New().
		Input(schema.Object(schema.Fields{"n": schema.Int()})).
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			called = true
			return p.Next(ctx), nil
		}).
		Action(echo("input"))

	res, err := act.Invoke(context.Background(), map[string]any{"n": "x"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.False(t, called)
}

func TestAction_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		fail    func() error
		code    domain.ErrorCode
		status  int
		message string
	}{
		{
			name:    "plain error keeps message",
			fail:    func() error { return errors.New("db down") },
			code:    domain.CodeInternal,
			status:  500,
			message: "db down",
		},
		{
			name:    "server error keeps code",
			fail:    func() error { return domain.NewServerError(domain.CodeForbidden, "nope") },
			code:    domain.CodeForbidden,
			status:  403,
			message: "nope",
		},
		{
			name:    "panic with value",
			fail:    func() error { panic(42) },
			code:    domain.CodeInternal,
			status:  500,
			message: domain.DefaultMessage,
		},
		{
			name:    "panic with error",
			fail:    func() error { panic(errors.New("exploded")) },
			code:    domain.CodeInternal,
			status:  500,
			message: "exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inMiddleware := pipeline.New().
				UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
					return nil, tt.fail()
				}).
				Action(echo("input"))

			inAction := pipeline.New().
				UseFunc(passthrough).
				Action(func(context.Context, pipeline.ActionParams) (any, error) {
					return nil, tt.fail()
				})

			for _, act := range []*pipeline.Action{inMiddleware, inAction} {
				res, err := act.Invoke(context.Background(), nil)
				require.NoError(t, err)
				assert.False(t, res.OK)
				assert.Nil(t, res.Output)
				assert.Equal(t, "ServerError", res.Error.Name)
				assert.Equal(t, tt.code, res.Error.Code)
				assert.Equal(t, tt.status, res.Error.Status)
				assert.Equal(t, tt.message, res.Error.Message)
			}
		})
	}
}

func TestAction_FailureAfterNextDropsOutput(t *testing.T) {
	act := pipeline.New().
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			st := p.Next(ctx)
			if st.OK {
				return st, errors.New("post-processing failed")
			}
			return st, nil
		}).
		Action(echo("input"))

	res, err := act.Invoke(context.Background(), "value")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Nil(t, res.Output)
	assert.Equal(t, "post-processing failed", res.Error.Message)
}

func TestAction_NextCalledTwiceRunsChainOnce(t *testing.T) {
	calls := 0
	act := pipeline.New().
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			first := p.Next(ctx)
			second := p.Next(ctx, pipeline.Overrides{Input: "ignored"})
			assert.Same(t, first, second)
			return second, nil
		}).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			calls++
			return calls, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Output)
}

func TestAction_MiddlewareShortCircuit(t *testing.T) {
	act := pipeline.New().
		UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
			return &pipeline.State{OK: true, Output: "cached"}, nil
		}).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			t.Fatal("action must not run")
			return nil, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &pipeline.Response{OK: true, Output: "cached"}, res)
}

func TestAction_MiddlewareShortCircuitSkipsInnerOutputs(t *testing.T) {
	act := pipeline.New().
		UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
			return &pipeline.State{OK: true, Output: map[string]any{"cached": true}}, nil
		}).
		Output(schema.Object(schema.Fields{"full_name": schema.String()})).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			t.Fatal("action must not run")
			return nil, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &pipeline.Response{OK: true, Output: map[string]any{"cached": true}}, res)
}

func TestAction_MiddlewareShortCircuitAppliesOwnOutputs(t *testing.T) {
	act := pipeline.New().
		Output(schema.Object(schema.Fields{"full_name": schema.String()})).
		UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
			return &pipeline.State{OK: true, Output: map[string]any{"cached": true}}, nil
		}).
		Output(schema.Object(schema.Fields{"id": schema.String()})).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return nil, nil
		})

	res, err := act.Invoke(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.NotNil(t, res.Error)
	require.Len(t, res.Error.Issues, 1)
	assert.Equal(t, []any{"full_name"}, res.Error.Issues[0].Path)
}

func TestAction_OutputNarrowingDependsOnPlacement(t *testing.T) {
	narrow := schema.Object(schema.Fields{"a": schema.String()})
	result := func(context.Context, pipeline.ActionParams) (any, error) {
		return map[string]any{"a": "x", "secret": "s"}, nil
	}

	// Declared after the last middleware: the validated value replaces the result.
	inner := pipeline.New().UseFunc(passthrough).Output(narrow).Action(result)
	res, err := inner.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x"}, res.Output)

	// Declared before a middleware: the validated value is merged into the output.
	outer := pipeline.New().Output(narrow).UseFunc(passthrough).Action(result)
	res, err = outer.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x", "secret": "s"}, res.Output)
}

func TestAction_MiddlewareWithoutNextKeepsState(t *testing.T) {
	act := pipeline.New().
		UseFunc(func(context.Context, pipeline.Params) (*pipeline.State, error) {
			return nil, nil
		}).
		Action(echo("input"))

	res, err := act.Invoke(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Nil(t, res.Output)
}

func TestAction_Binds(t *testing.T) {
	act := pipeline.New().
		Binds(schema.String()).
		Binds(schema.Int()).
		Input(schema.Object(schema.Fields{"name": schema.String()})).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return map[string]any{"binds": p.Binds, "input": p.Input}, nil
		})

	res, err := act.Invoke(context.Background(), "id-1", 7, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	require.True(t, res.OK, "error: %+v", res.Error)
	assert.Equal(t, map[string]any{
		"binds": []any{"id-1", int64(7)},
		"input": map[string]any{"name": "Ann"},
	}, res.Output)

	res, err = act.Invoke(context.Background(), 1, "x", map[string]any{"name": "Ann"})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Len(t, res.Error.Issues, 2)
	assert.Equal(t, "Expected string, received int", res.Error.Issues[0].Message)
}

func TestAction_BindHelper(t *testing.T) {
	act := pipeline.New().
		Binds(schema.String()).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return fmt.Sprintf("%s:%v", p.Binds[0], p.Input), nil
		})

	update := pipeline.Bind(act, "user-7")
	res, err := update(context.Background(), "payload")
	require.NoError(t, err)
	assert.Equal(t, "user-7:payload", res.Output)
}

func TestAction_FormPayloadArguments(t *testing.T) {
	act := pipeline.New().
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return map[string]any{"binds": p.Binds, "input": p.Input}, nil
		})

	form := url.Values{"name": {"Ann"}}
	res, err := act.Invoke(context.Background(), "a", "b", form)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, res.Output.(map[string]any)["binds"])
	assert.Equal(t, form, res.Output.(map[string]any)["input"])

	validated := pipeline.New().
		Input(schema.Object(schema.Fields{"name": schema.String().Min(2)})).
		Action(echo("input"))

	res, err = validated.Invoke(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ann"}, res.Output)
}

func TestAction_NextBindsOverride(t *testing.T) {
	act := pipeline.New().
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			return p.Next(ctx, pipeline.Overrides{
				Binds: []any{"extra"},
				Input: url.Values{"more": {"1"}},
			}), nil
		}).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return p.Binds, nil
		})

	res, err := act.Invoke(context.Background(), "a", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "extra"}, res.Output)
}

func TestAction_ContextCancellation(t *testing.T) {
	act := pipeline.New().UseFunc(passthrough).Action(echo("input"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := act.Invoke(ctx, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, domain.CodeInternal, res.Error.Code)

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	res, err = act.Invoke(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CodeRequestTimeout, res.Error.Code)
	assert.Equal(t, 408, res.Error.Status)
}

func TestDefinition_BranchesDoNotInterfere(t *testing.T) {
	base := pipeline.New().Context(map[string]any{"base": true})
	left := base.Context(map[string]any{"side": "left"}).Action(echo("context"))
	right := base.Context(map[string]any{"side": "right"}).Action(echo("context"))
	plain := base.Action(echo("context"))

	for act, want := range map[*pipeline.Action]map[string]any{
		left:  {"base": true, "side": "left"},
		right: {"base": true, "side": "right"},
		plain: {"base": true},
	} {
		res, err := act.Invoke(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, want, res.Output)
	}
}

func TestAction_ConcurrentInvocations(t *testing.T) {
	act := pipeline.New().
		Input(schema.Object(schema.Fields{"n": schema.Int()})).
		UseFunc(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
			return p.Next(ctx, pipeline.Overrides{Meta: map[string]any{"seen": true}}), nil
		}).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return p.Input.(map[string]any)["n"], nil
		})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := act.Invoke(context.Background(), map[string]any{"n": n})
			assert.NoError(t, err)
			assert.Equal(t, int64(n), res.Output)
		}(i)
	}
	wg.Wait()
}
