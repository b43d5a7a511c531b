package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
	"github.com/aretw0/lattice/pkg/schema"
)

func testServer() *Server {
	person := schema.Object(schema.Fields{
		"first_name": schema.String().Min(3),
		"last_name":  schema.String().Min(3),
	})

	fullName := pipeline.New(pipeline.WithName("people.full_name")).
		Input(person).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			in := p.Input.(map[string]any)
			return in["first_name"].(string) + " " + in["last_name"].(string), nil
		})

	getUser := pipeline.New(pipeline.WithName("users.get")).
		Binds(schema.String().Min(1)).
		Action(func(_ context.Context, p pipeline.ActionParams) (any, error) {
			return map[string]any{"id": p.Binds[0]}, nil
		})

	login := pipeline.New(pipeline.WithName("login")).
		Action(func(context.Context, pipeline.ActionParams) (any, error) {
			return nil, domain.Redirect("/dashboard", 0)
		})

	anonymous := pipeline.New().Action(func(context.Context, pipeline.ActionParams) (any, error) {
		return nil, errors.New("unreachable")
	})

	return NewServer([]*pipeline.Action{fullName, getUser, login, anonymous})
}

func call(t *testing.T, s *Server, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	a, ok := s.actions[tool]
	require.True(t, ok, "tool %s not registered", tool)

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := s.handle(a)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestNewServer_RegistersNamedActions(t *testing.T) {
	s := testServer()

	var names []string
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"login", "people_full_name", "users_get"}, names)

	for _, tool := range s.Tools() {
		if tool.Name == "users_get" {
			assert.Contains(t, tool.InputSchema.Required, "binds")
		}
		if tool.Name == "people_full_name" {
			assert.Contains(t, tool.Description, "{first_name:string(min=3)")
		}
	}
}

func TestHandle_Success(t *testing.T) {
	s := testServer()

	res := call(t, s, "people_full_name", map[string]any{
		"input": `{"first_name": "John", "last_name": "Doe"}`,
	})

	assert.False(t, res.IsError)
	var out pipeline.Response
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.True(t, out.OK)
	assert.Equal(t, "John Doe", out.Output)
}

func TestHandle_StructuredInput(t *testing.T) {
	s := testServer()

	res := call(t, s, "people_full_name", map[string]any{
		"input": map[string]any{"first_name": "John", "last_name": "Doe"},
	})

	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "John Doe")
}

func TestHandle_ValidationFailure(t *testing.T) {
	s := testServer()

	res := call(t, s, "people_full_name", map[string]any{
		"input": `{"first_name": "Al", "last_name": "Doe"}`,
	})

	assert.True(t, res.IsError)
	var out pipeline.Response
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, "ValidationError", out.Error.Name)
	require.Len(t, out.Error.Issues, 1)
	assert.Equal(t, "String must contain at least 3 character(s)", out.Error.Issues[0].Message)
}

func TestHandle_Binds(t *testing.T) {
	s := testServer()

	res := call(t, s, "users_get", map[string]any{"binds": `["42"]`})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"ok": true, "output": {"id": "42"}}`, textOf(t, res))

	res = call(t, s, "users_get", map[string]any{})
	assert.True(t, res.IsError, "missing bind must fail validation")
}

func TestHandle_InvalidArguments(t *testing.T) {
	s := testServer()

	res := call(t, s, "people_full_name", map[string]any{"input": `{not json`})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "invalid arguments")

	res = call(t, s, "users_get", map[string]any{"binds": `{"a": 1}`})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "binds must be an array")
}

func TestHandle_Signal(t *testing.T) {
	s := testServer()

	res := call(t, s, "login", nil)

	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "signal: redirect 303 /dashboard")
}

func TestToolArguments(t *testing.T) {
	args, err := toolArguments(2, map[string]any{"binds": `["a"]`, "input": `{"n": 1}`})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", nil, map[string]any{"n": json.Number("1")}}, args)

	args, err = toolArguments(0, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, args)
}

func TestDescriptions(t *testing.T) {
	s := testServer()

	descs := s.Descriptions()
	require.Len(t, descs, 3)
	assert.Equal(t, "login", descs[0].Name)
	assert.Equal(t, "people.full_name", descs[1].Name)
	assert.Equal(t, [][]string{{"string(min=1)"}}, descs[2].Binds)
}
