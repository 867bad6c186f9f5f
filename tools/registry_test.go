package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	name  string
	calls []map[string]any
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echoes the query" }
func (e *echoTool) Parameters() *jsonschema.Schema {
	return queryParameters("what to echo")
}

func (e *echoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	e.calls = append(e.calls, args)
	return "echo: " + args["query"].(string), nil
}

func TestRegistry_RegisterRejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "echo"}))

	assert.Error(t, r.Register(&echoTool{name: "echo"}))
	assert.Error(t, r.Register(&echoTool{name: ""}))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_DefinitionsSortedByName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"search_web", "get_weather", "echo"} {
		require.NoError(t, r.Register(&echoTool{name: name}))
	}

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "get_weather", defs[1].Name)
	assert.Equal(t, "search_web", defs[2].Name)
	assert.Equal(t, []string{"query"}, defs[0].Parameters.Required)
}

func TestRegistry_Execute(t *testing.T) {
	tool := &echoTool{name: "echo"}
	r := NewRegistry()
	require.NoError(t, r.Register(tool))

	out, err := r.Execute(context.Background(), "echo", json.RawMessage(`{"query":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
	require.Len(t, tool.calls, 1)
	assert.Equal(t, "hi", tool.calls[0]["query"])
}

func TestRegistry_ExecuteErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "echo"}))

	tests := []struct {
		name    string
		tool    string
		args    string
		wantErr error
	}{
		{"unknown tool", "get_stock_price", `{"query":"x"}`, ErrUnknownTool},
		{"malformed json", "echo", `{"query":`, ErrInvalidArguments},
		{"missing required", "echo", `{}`, ErrInvalidArguments},
		{"wrong type", "echo", `{"query": 42}`, ErrInvalidArguments},
		{"no arguments", "echo", ``, ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.tool, json.RawMessage(tt.args))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestErrorPayload(t *testing.T) {
	assert.JSONEq(t, `{"error":"Weather Data Not Found"}`, ErrorPayload("Weather Data Not Found"))
	assert.JSONEq(t, `{"error":"say \"hi\""}`, ErrorPayload(`say "hi"`))
}
