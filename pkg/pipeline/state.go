package pipeline

import (
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/merge"
)

// State is the accumulated result of one run. Middleware receive it back
// from Next and may inspect or adjust it before returning it.
type State struct {
	OK      bool
	Context any
	Meta    any
	Binds   []any
	Input   any
	Output  any
	Err     error
}

// fail marks the state failed with err classified onto the domain taxonomy.
func (s *State) fail(err error) {
	s.OK = false
	s.Output = nil
	s.Err = domain.Classify(err)
}

// apply merges overrides handed to Next into the state.
func (s *State) apply(overrides []Overrides) {
	for _, o := range overrides {
		if o.Context != nil {
			s.Context = merge.Merge(s.Context, o.Context)
		}
		if o.Meta != nil {
			s.Meta = merge.Merge(s.Meta, o.Meta)
		}
		if o.Binds != nil {
			s.Binds = toSlice(merge.Merge(s.Binds, o.Binds))
		}
		if o.Input != nil {
			s.Input = merge.Merge(s.Input, o.Input)
		}
	}
}

// Response is what callers of an action observe. Exactly one of Output and
// Error is set, depending on OK.
type Response struct {
	OK     bool               `json:"ok"`
	Output any                `json:"output,omitempty"`
	Error  *domain.Serialized `json:"error,omitempty"`
}

// project turns a finished state into a Response. Signals are not failures of
// the pipeline; they are returned as the error for the host to act upon.
func project(s *State) (*Response, error) {
	if s.OK {
		return &Response{OK: true, Output: s.Output}, nil
	}
	err := s.Err
	if err == nil {
		err = domain.DefaultServerError(nil)
	}
	if domain.KindOf(err) == domain.KindSignal {
		return nil, err
	}
	return &Response{OK: false, Error: domain.Serialize(err)}, nil
}

func toSlice(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	default:
		return []any{v}
	}
}
