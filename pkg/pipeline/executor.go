package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/merge"
	"github.com/aretw0/lattice/pkg/schema"
	"github.com/aretw0/lattice/pkg/sequence"
)

// run holds everything that belongs to a single invocation. Nothing in it is
// shared with other invocations of the same action.
type run struct {
	action *Action
	logger *slog.Logger

	regs     []Registration
	bindArgs []any
	input    any

	contexts *sequence.Cursor[any]
	metas    *sequence.Cursor[any]
	binds    *sequence.Cursor[[]schema.Schema]
	inputs   *sequence.Cursor[schema.Schema]
	outputs  *sequence.Cursor[schema.Schema]

	state *State
}

func newRun(a *Action, args []any) *run {
	d := a.def
	bindArgs, input := resolveArgs(d.binds.Offset(), args)

	r := &run{
		action:   a,
		logger:   d.logger.With("pipeline", d.name),
		regs:     d.middleware.Items(),
		bindArgs: bindArgs,
		input:    input,
		contexts: sequence.NewCursor(d.contexts),
		metas:    sequence.NewCursor(d.metas),
		binds:    sequence.NewCursor(d.binds),
		inputs:   sequence.NewCursor(d.inputs),
		outputs:  sequence.NewCursor(d.outputs),
		state:    &State{OK: true},
	}

	// Without schemas the raw arguments flow through untouched.
	if d.binds.Empty() {
		r.state.Binds = bindArgs
	}
	if d.inputs.Empty() {
		r.state.Input = input
	}
	return r
}

// invoke runs stage i: middleware i, or the action itself once every
// middleware has been entered. Next recurses into stage i+1, so chain depth
// costs goroutine stack, which Go grows on demand.
func (r *run) invoke(ctx context.Context, i int) {
	if i == len(r.regs) {
		r.terminal(ctx)
		return
	}

	reg := r.regs[i]
	logger := r.logger.With("stage", i, "middleware", reg.Name)

	if err := ctx.Err(); err != nil {
		r.fail(logger, err)
		return
	}
	logger.Debug("Entering middleware")

	if err := r.guard(func() error {
		return r.applyFences(ctx, reg.ContextOffset, reg.MetaOffset, reg.BindsOffset, reg.InputOffset)
	}); err != nil {
		r.fail(logger, err)
		return
	}

	called := false
	next := func(ctx context.Context, overrides ...Overrides) *State {
		if called {
			return r.state
		}
		called = true
		r.state.apply(overrides)
		r.invoke(ctx, i+1)
		return r.state
	}

	var returned *State
	err := r.guard(func() error {
		st, err := reg.Handler.Handle(ctx, Params{
			Context: r.state.Context,
			Meta:    r.state.Meta,
			Next:    next,
			state:   r.state,
		})
		returned = st
		return err
	})
	if err != nil {
		r.fail(logger, err)
		return
	}
	if returned != nil {
		r.state = returned
	}
	if !r.state.OK {
		return
	}

	// Output schemas declared after this middleware belong to stages it may
	// have short-circuited; only those declared between the previous
	// middleware and this one wrap its result.
	r.outputs.Skip(r.outputTarget(reg.OutputOffset))
	prev := 0
	if i > 0 {
		prev = r.regs[i-1].OutputOffset
	}
	if err := r.guard(func() error {
		return r.applyOutputs(ctx, r.outputTarget(prev))
	}); err != nil {
		r.fail(logger, err)
	}
}

// terminal applies every remaining declaration and calls the action.
func (r *run) terminal(ctx context.Context) {
	if !r.state.OK {
		return
	}
	logger := r.logger.With("stage", "action")
	if err := ctx.Err(); err != nil {
		r.fail(logger, err)
		return
	}
	logger.Debug("Invoking action")

	d := r.action.def
	err := r.guard(func() error {
		if err := r.applyFences(ctx, d.contexts.Offset(), d.metas.Offset(), d.binds.Offset(), d.inputs.Offset()); err != nil {
			return err
		}

		out, err := r.action.fn(ctx, ActionParams{
			Context: r.state.Context,
			Meta:    r.state.Meta,
			Binds:   r.state.Binds,
			Input:   r.state.Input,
		})
		if err != nil {
			return err
		}

		last := 0
		if len(r.regs) > 0 {
			last = r.regs[len(r.regs)-1].OutputOffset
		}
		target := r.outputTarget(last)
		if r.outputs.CanApply(target) {
			if err := r.outputs.Apply(target, func(schemas []schema.Schema) error {
				validated, err := Validate(ctx, out, schemas...)
				out = validated
				return err
			}); err != nil {
				return err
			}
		}

		r.state.Output = merge.Merge(r.state.Output, out)
		r.state.OK = true
		return nil
	})
	if err != nil {
		r.fail(logger, err)
	}
}

// outputTarget converts a registration's output offset into a cursor offset.
// Output declarations are prepended, so the ones made before a registration
// sit at the tail of the sequence.
func (r *run) outputTarget(offset int) int {
	return r.action.def.outputs.Offset() - offset
}

func (r *run) applyOutputs(ctx context.Context, target int) error {
	if !r.outputs.CanApply(target) {
		return nil
	}
	return r.outputs.Apply(target, func(schemas []schema.Schema) error {
		validated, err := Validate(ctx, r.state.Output, schemas...)
		if err != nil {
			return err
		}
		r.state.Output = merge.Merge(r.state.Output, validated)
		return nil
	})
}

// applyFences applies the context, meta, bind and input declarations that
// became visible at the given offsets.
func (r *run) applyFences(ctx context.Context, contextOffset, metaOffset, bindsOffset, inputOffset int) error {
	if r.contexts.CanApply(contextOffset) {
		_ = r.contexts.Apply(contextOffset, func(values []any) error {
			r.state.Context = merge.All(r.state.Context, values...)
			return nil
		})
	}

	if r.metas.CanApply(metaOffset) {
		_ = r.metas.Apply(metaOffset, func(values []any) error {
			r.state.Meta = merge.All(r.state.Meta, values...)
			return nil
		})
	}

	if r.binds.CanApply(bindsOffset) {
		from := r.binds.LastOffset()
		if err := r.binds.Apply(bindsOffset, func(groups [][]schema.Schema) error {
			values, err := r.validateBinds(ctx, from, groups)
			if err != nil {
				return err
			}
			r.state.Binds = toSlice(merge.Merge(r.state.Binds, values))
			return nil
		}); err != nil {
			return err
		}
	}

	if r.inputs.CanApply(inputOffset) {
		if err := r.inputs.Apply(inputOffset, func(schemas []schema.Schema) error {
			validated, err := Validate(ctx, r.input, schemas...)
			if err != nil {
				return err
			}
			r.state.Input = merge.Merge(r.state.Input, validated)
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// validateBinds checks bind arguments [from, from+len(groups)) against their
// groups concurrently. Validation issues of every group are reported together.
func (r *run) validateBinds(ctx context.Context, from int, groups [][]schema.Schema) ([]any, error) {
	values := make([]any, len(groups))
	errs := make([]error, len(groups))

	var g errgroup.Group
	for k, group := range groups {
		g.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					errs[k] = domain.Recovered(v)
				}
			}()
			values[k], errs[k] = Validate(ctx, r.bindArgs[from+k], group...)
			return nil
		})
	}
	_ = g.Wait()

	var issues []schema.Issue
	for _, err := range errs {
		if err == nil {
			continue
		}
		verr, ok := domain.Classify(err).(*domain.ValidationError)
		if !ok {
			return nil, err
		}
		issues = append(issues, verr.Issues...)
	}
	if len(issues) > 0 {
		return nil, domain.NewValidationError(issues...)
	}
	return values, nil
}

// guard runs fn and turns a panic into a classified error.
func (r *run) guard(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = domain.Recovered(v)
		}
	}()
	return fn()
}

func (r *run) fail(logger *slog.Logger, err error) {
	r.state.fail(err)
	if domain.KindOf(r.state.Err) == domain.KindSignal {
		logger.Debug("Pipeline signalled host", "signal", r.state.Err)
		return
	}
	logger.Warn("Pipeline failed", "kind", domain.KindOf(r.state.Err).String(), "error", r.state.Err)
}
