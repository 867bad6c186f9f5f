// Package tools provides the tool interface, the registry and the tools the agent can call.
package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrUnknownTool is returned when a tool name is not in the registry.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments is returned when tool arguments are not a JSON object
	// or do not satisfy the tool's parameter schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrProviderUnavailable is returned when an upstream provider cannot be reached
	// or answers with something that cannot be decoded.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the JSON schema for the tool's arguments.
	Parameters() *jsonschema.Schema

	// Execute runs the tool with the given arguments and returns the result payload.
	// The context should be used for cancellation and timeouts.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ErrorPayload renders msg as the JSON error object handed back to the model.
func ErrorPayload(msg string) string {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"unknown error"}`
	}
	return string(b)
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func queryParameters(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: description,
			},
		},
		Required: []string{"query"},
	}
}
