// Package merge implements the structural combination used to accumulate
// pipeline state across stages.
//
// Records (maps keyed by strings) merge key by key, sequences concatenate,
// and anything else is replaced by the right-hand operand. Operands are never
// mutated.
package merge

import "reflect"

// Merge combines a and b.
//
//   - both sequences: a's elements followed by b's
//   - either side not a record: b
//   - both records: a copy of a with every key of b merged recursively
func Merge(a, b any) any {
	if isSequence(a) && isSequence(b) {
		return concat(a, b)
	}

	ra, okA := asRecord(a)
	rb, okB := asRecord(b)
	if !okA || !okB {
		return b
	}

	merged := make(map[string]any, len(ra)+len(rb))
	for k, v := range ra {
		merged[k] = v
	}
	for k, v := range rb {
		merged[k] = Merge(merged[k], v)
	}
	return merged
}

// All folds values into base from left to right.
func All(base any, values ...any) any {
	acc := base
	for _, v := range values {
		acc = Merge(acc, v)
	}
	return acc
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// concat keeps the element type when both operands agree on it and falls
// back to []any otherwise.
func concat(a, b any) any {
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)

	if va.Kind() == reflect.Slice && va.Type() == vb.Type() {
		out := reflect.MakeSlice(va.Type(), 0, va.Len()+vb.Len())
		out = reflect.AppendSlice(out, va)
		out = reflect.AppendSlice(out, vb)
		return out.Interface()
	}

	out := make([]any, 0, va.Len()+vb.Len())
	for i := 0; i < va.Len(); i++ {
		out = append(out, va.Index(i).Interface())
	}
	for i := 0; i < vb.Len(); i++ {
		out = append(out, vb.Index(i).Interface())
	}
	return out
}

// asRecord reports whether v is a plain keyed record and returns it as a
// map[string]any. Maps with other string-keyed value types are normalized.
func asRecord(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
