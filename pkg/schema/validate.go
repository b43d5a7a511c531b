package schema

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Fields maps field names to their expected schemas.
// Example: {"api_key": String(), "retries": Int(), "tags": Slice(String())}
type Fields map[string]Schema

// ObjectType validates keyed records. Declared fields are required unless
// wrapped with Optional; undeclared keys are dropped from the output.
type ObjectType struct {
	fields Fields
}

// Object creates a record validator.
func Object(fields Fields) *ObjectType {
	return &ObjectType{fields: fields}
}

// Fields returns a copy of the declared fields.
func (t *ObjectType) Fields() Fields {
	out := make(Fields, len(t.fields))
	for k, v := range t.fields {
		out[k] = v
	}
	return out
}

func (t *ObjectType) Name() string {
	keys := t.keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + t.fields[k].Name()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Validate checks every declared field and reports all failures found,
// in field name order.
func (t *ObjectType) Validate(ctx context.Context, value any) Result {
	data, ok := Record(value)
	if !ok {
		return Failf("Expected object, received %s", describe(value))
	}

	out := make(map[string]any, len(t.fields))
	var issues []Issue

	for _, fieldName := range t.keys() {
		fieldType := t.fields[fieldName]
		fieldValue, exists := data[fieldName]
		if !exists {
			if _, optional := fieldType.(*OptionalType); optional {
				continue
			}
			issues = append(issues, Issue{Message: "Required", Path: []any{fieldName}})
			continue
		}

		res := fieldType.Validate(ctx, fieldValue)
		if !res.Success {
			issues = append(issues, prefix(fieldName, res.Issues)...)
			continue
		}
		out[fieldName] = res.Data
	}

	if len(issues) > 0 {
		return Fail(issues...)
	}
	return Ok(out)
}

func (t *ObjectType) keys() []string {
	keys := make([]string, 0, len(t.fields))
	for k := range t.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record normalizes a keyed value into map[string]any.
// Native form submissions (url.Values) are flattened: single values become
// strings, repeated values become []any.
func Record(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case url.Values:
		out := make(map[string]any, len(v))
		for k, vals := range v {
			switch len(vals) {
			case 0:
			case 1:
				out[k] = vals[0]
			default:
				list := make([]any, len(vals))
				for i, s := range vals {
					list[i] = s
				}
				out[k] = list
			}
		}
		return out, true
	}

	rv := reflect.ValueOf(value)
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

// ValidateFields validates only specific fields from data against the object.
// Fields not declared on the object are reported as issues.
func (t *ObjectType) ValidateFields(ctx context.Context, data map[string]any, fields ...string) Result {
	if len(fields) == 0 {
		return Ok(map[string]any{})
	}

	sub := make(Fields, len(fields))
	var issues []Issue
	for _, fieldName := range fields {
		fieldType, exists := t.fields[fieldName]
		if !exists {
			issues = append(issues, Issue{Message: fmt.Sprintf("Field %q is not defined in schema", fieldName), Path: []any{fieldName}})
			continue
		}
		sub[fieldName] = fieldType
	}

	res := Object(sub).Validate(ctx, data)
	if len(issues) > 0 {
		return Fail(append(issues, res.Issues...)...)
	}
	return res
}
