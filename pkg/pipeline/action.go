package pipeline

import (
	"context"
	"time"
)

// ActionParams is what the terminal action function receives.
type ActionParams struct {
	Context any
	Meta    any
	Binds   []any
	Input   any
}

// ActionFunc is the terminal stage of a pipeline. Its result is validated
// against the output schemas declared after the last middleware.
type ActionFunc func(ctx context.Context, p ActionParams) (any, error)

// Func is the callable form of an Action.
type Func func(ctx context.Context, args ...any) (*Response, error)

// InputFunc is an action whose binds were supplied up front by Bind.
type InputFunc func(ctx context.Context, input any) (*Response, error)

// Action is a frozen pipeline. It is safe for concurrent use.
type Action struct {
	def *Definition
	fn  ActionFunc
}

// Name returns the name of the definition the action was built from.
func (a *Action) Name() string {
	return a.def.name
}

// BindGroups reports how many positional bind arguments the action expects.
func (a *Action) BindGroups() int {
	return a.def.binds.Offset()
}

// Run executes the pipeline and returns the raw final state.
func (a *Action) Run(ctx context.Context, args ...any) *State {
	r := newRun(a, args)
	start := time.Now()
	r.invoke(ctx, 0)
	r.logger.Debug("Pipeline finished", "ok", r.state.OK, "duration", time.Since(start))
	return r.state
}

// Invoke executes the pipeline and projects the result.
//
// Failures are reported in the Response. The returned error is non-nil only
// for host signals (see domain.Signal), which the caller must act upon.
func (a *Action) Invoke(ctx context.Context, args ...any) (*Response, error) {
	return project(a.Run(ctx, args...))
}

// Func returns Invoke as a plain function value.
func (a *Action) Func() Func {
	return a.Invoke
}

// Bind pre-applies the leading arguments of a, leaving only the input.
func Bind(a *Action, binds ...any) InputFunc {
	bound := append([]any(nil), binds...)
	return func(ctx context.Context, input any) (*Response, error) {
		args := make([]any, 0, len(bound)+1)
		args = append(args, bound...)
		args = append(args, input)
		return a.Invoke(ctx, args...)
	}
}
