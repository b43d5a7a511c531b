package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"
)

// Schema validates a value and returns the (possibly coerced) result.
// Implementations must be safe for concurrent use: a schema declared once is
// shared by every invocation of a pipeline.
type Schema interface {
	// Name returns the human-readable name of the schema (e.g., "string", "[int]").
	Name() string
	// Validate checks value and returns either the output data or the issues found.
	Validate(ctx context.Context, value any) Result
}

// Result is the outcome of validating one value against one schema.
type Result struct {
	Success bool
	Data    any
	Issues  []Issue
}

// Ok builds a successful result.
func Ok(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed result.
func Fail(issues ...Issue) Result {
	return Result{Issues: issues}
}

// Failf builds a failed result with a single root-level issue.
func Failf(format string, args ...any) Result {
	return Fail(Issue{Message: fmt.Sprintf(format, args...)})
}

// Check runs s against value. It is a convenience for callers outside a pipeline.
func Check(s Schema, value any) Result {
	return s.Validate(context.Background(), value)
}

// --- Built-in Type Implementations ---

// StringType validates string values, optionally bounding their length in runes.
type StringType struct {
	min, max       int
	hasMin, hasMax bool
}

func (t *StringType) Name() string {
	return "string" + bounds(t.hasMin, t.hasMax, float64(t.min), float64(t.max))
}

// Min returns a copy requiring at least n characters.
func (t *StringType) Min(n int) *StringType {
	c := *t
	c.min, c.hasMin = n, true
	return &c
}

// Max returns a copy allowing at most n characters.
func (t *StringType) Max(n int) *StringType {
	c := *t
	c.max, c.hasMax = n, true
	return &c
}

func (t *StringType) Validate(_ context.Context, value any) Result {
	s, ok := value.(string)
	if !ok {
		return Failf("Expected string, received %s", describe(value))
	}
	n := utf8.RuneCountInString(s)
	if t.hasMin && n < t.min {
		return Failf("String must contain at least %d character(s)", t.min)
	}
	if t.hasMax && n > t.max {
		return Failf("String must contain at most %d character(s)", t.max)
	}
	return Ok(s)
}

// IntType validates integer values and normalizes them to int64.
type IntType struct {
	min, max       int64
	hasMin, hasMax bool
}

func (t *IntType) Name() string {
	return "int" + bounds(t.hasMin, t.hasMax, float64(t.min), float64(t.max))
}

// Min returns a copy requiring a value of at least n.
func (t *IntType) Min(n int64) *IntType {
	c := *t
	c.min, c.hasMin = n, true
	return &c
}

// Max returns a copy requiring a value of at most n.
func (t *IntType) Max(n int64) *IntType {
	c := *t
	c.max, c.hasMax = n, true
	return &c
}

func (t *IntType) Validate(_ context.Context, value any) Result {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		// JSON decoding yields float64; accept whole numbers only
		if v != math.Trunc(v) {
			return Failf("Expected integer, received float")
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return Failf("Expected integer, received out of range number")
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return Failf("Expected integer, received %q", v.String())
		}
		n = i
	default:
		return Failf("Expected integer, received %s", describe(value))
	}
	if t.hasMin && n < t.min {
		return Failf("Number must be greater than or equal to %d", t.min)
	}
	if t.hasMax && n > t.max {
		return Failf("Number must be less than or equal to %d", t.max)
	}
	return Ok(n)
}

// FloatType validates numeric values and normalizes them to float64.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(_ context.Context, value any) Result {
	switch v := value.(type) {
	case float64:
		return Ok(v)
	case float32:
		return Ok(float64(v))
	case int:
		return Ok(float64(v))
	case int8:
		return Ok(float64(v))
	case int16:
		return Ok(float64(v))
	case int32:
		return Ok(float64(v))
	case int64:
		return Ok(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Failf("Expected number, received %q", v.String())
		}
		return Ok(f)
	default:
		return Failf("Expected number, received %s", describe(value))
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(_ context.Context, value any) Result {
	b, ok := value.(bool)
	if !ok {
		return Failf("Expected boolean, received %s", describe(value))
	}
	return Ok(b)
}

// SliceType validates slices of a specific element type.
// The output is a []any holding each element's validated data.
type SliceType struct {
	elemType Schema
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(ctx context.Context, value any) Result {
	if value == nil {
		return Failf("Expected array, received null")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return Failf("Expected array, received %s", describe(value))
	}

	out := make([]any, rv.Len())
	var issues []Issue
	for i := 0; i < rv.Len(); i++ {
		res := t.elemType.Validate(ctx, rv.Index(i).Interface())
		if !res.Success {
			issues = append(issues, prefix(i, res.Issues)...)
			continue
		}
		out[i] = res.Data
	}
	if len(issues) > 0 {
		return Fail(issues...)
	}
	return Ok(out)
}

// OptionalType accepts nil in addition to whatever the wrapped schema accepts.
type OptionalType struct {
	inner Schema
}

func (t *OptionalType) Name() string { return "?" + t.inner.Name() }

func (t *OptionalType) Validate(ctx context.Context, value any) Result {
	if value == nil {
		return Ok(nil)
	}
	return t.inner.Validate(ctx, value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(_ context.Context, value any) Result {
	err := t.validate(value)
	if err == nil {
		return Ok(value)
	}
	var ie *IssueError
	if errors.As(err, &ie) {
		return Fail(ie.Issues...)
	}
	return Fail(Issue{Message: err.Error()})
}

// TransformType validates with an inner schema and then maps its output.
type TransformType struct {
	inner Schema
	fn    func(any) (any, error)
}

func (t *TransformType) Name() string { return t.inner.Name() }

func (t *TransformType) Validate(ctx context.Context, value any) Result {
	res := t.inner.Validate(ctx, value)
	if !res.Success {
		return res
	}
	out, err := t.fn(res.Data)
	if err != nil {
		return Fail(Issue{Message: err.Error()})
	}
	return Ok(out)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() *StringType { return &StringType{} }

// Int creates an integer type validator.
func Int() *IntType { return &IntType{} }

// Float creates a float type validator.
func Float() Schema { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Schema { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Schema) Schema {
	return &SliceType{elemType: elemType}
}

// Optional makes s accept nil.
func Optional(s Schema) Schema {
	return &OptionalType{inner: s}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Schema {
	return &CustomType{name: name, validate: validate}
}

// Transform maps the output of s through fn once s succeeds.
func Transform(s Schema, fn func(any) (any, error)) Schema {
	return &TransformType{inner: s, fn: fn}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}

func bounds(hasMin, hasMax bool, min, max float64) string {
	if !hasMin && !hasMax {
		return ""
	}
	var parts []string
	if hasMin {
		parts = append(parts, fmt.Sprintf("min=%g", min))
	}
	if hasMax {
		parts = append(parts, fmt.Sprintf("max=%g", max))
	}
	return "(" + strings.Join(parts, ",") + ")"
}
