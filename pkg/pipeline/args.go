package pipeline

import "net/url"

// resolveArgs splits invocation arguments into binds and input.
//
// With no bind groups declared, a trailing form payload (url.Values) is the
// input and every argument before it is a bind; otherwise the first argument
// is the input. With N groups declared, the first N arguments are binds and
// the next one is the input.
func resolveArgs(groups int, args []any) (binds []any, input any) {
	if groups == 0 {
		for i := len(args) - 1; i >= 0; i-- {
			if _, ok := args[i].(url.Values); ok {
				return append([]any(nil), args[:i]...), args[i]
			}
		}
		if len(args) > 0 {
			return nil, args[0]
		}
		return nil, nil
	}

	n := min(groups, len(args))
	binds = make([]any, groups)
	copy(binds, args[:n])
	if len(args) > groups {
		input = args[groups]
	}
	return binds, input
}
