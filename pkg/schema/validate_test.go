package schema

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_Success(t *testing.T) {
	obj := Object(Fields{
		"api_key": String(),
		"retries": Int(),
		"timeout": Float(),
		"enabled": Bool(),
		"tags":    Slice(String()),
	})

	data := map[string]any{
		"api_key": "secret123",
		"retries": 3,
		"timeout": 30.5,
		"enabled": true,
		"tags":    []string{"prod", "critical"},
		"extra":   "dropped",
	}

	res := Check(obj, data)
	require.True(t, res.Success, "issues: %v", res.Issues)

	out := res.Data.(map[string]any)
	assert.Equal(t, int64(3), out["retries"])
	assert.NotContains(t, out, "extra")
}

func TestObject_MissingField(t *testing.T) {
	obj := Object(Fields{
		"api_key": String(),
		"retries": Int(),
	})

	res := Check(obj, map[string]any{"api_key": "secret123"})

	require.False(t, res.Success)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, Issue{Message: "Required", Path: []any{"retries"}}, res.Issues[0])
}

func TestObject_MultipleIssuesInFieldOrder(t *testing.T) {
	obj := Object(Fields{
		"api_key": String(),
		"retries": Int(),
		"timeout": Float(),
	})

	res := Check(obj, map[string]any{
		"retries": "not an int",
		"timeout": "not a float",
	})

	require.False(t, res.Success)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, []any{"api_key"}, res.Issues[0].Path)
	assert.Equal(t, []any{"retries"}, res.Issues[1].Path)
	assert.Equal(t, []any{"timeout"}, res.Issues[2].Path)
}

func TestObject_NestedPaths(t *testing.T) {
	obj := Object(Fields{
		"user": Object(Fields{"name": String().Min(2)}),
	})

	res := Check(obj, map[string]any{"user": map[string]any{"name": "a"}})

	require.False(t, res.Success)
	assert.Equal(t, []any{"user", "name"}, res.Issues[0].Path)
}

func TestObject_OptionalFieldMayBeAbsent(t *testing.T) {
	obj := Object(Fields{"nickname": Optional(String())})

	res := Check(obj, map[string]any{})

	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{}, res.Data)
}

func TestObject_RejectsNonRecords(t *testing.T) {
	res := Check(Object(Fields{}), "nope")
	assert.False(t, res.Success)
	assert.Equal(t, "Expected object, received string", res.Issues[0].Message)
}

func TestObject_AcceptsFormValues(t *testing.T) {
	obj := Object(Fields{"first_name": String(), "tags": Slice(String())})
	form := url.Values{"first_name": {"Ann"}, "tags": {"a", "b"}}

	res := Check(obj, form)

	require.True(t, res.Success, "issues: %v", res.Issues)
	assert.Equal(t, map[string]any{"first_name": "Ann", "tags": []any{"a", "b"}}, res.Data)
}

func TestValidateFields(t *testing.T) {
	obj := Object(Fields{
		"api_key": String(),
		"retries": Int(),
	})
	data := map[string]any{
		"api_key": "secret123",
		"retries": "invalid",
	}

	res := obj.ValidateFields(context.Background(), data, "api_key")
	assert.True(t, res.Success)

	res = obj.ValidateFields(context.Background(), data, "api_key", "unknown")
	require.False(t, res.Success)
	assert.Equal(t, []any{"unknown"}, res.Issues[0].Path)
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "user.0: bad", Issue{Message: "bad", Path: []any{"user", 0}}.String())
	assert.Equal(t, "bad", Issue{Message: "bad"}.String())
}
