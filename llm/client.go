// Package llm talks to OpenAI-compatible chat-completions endpoints.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	ai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"toolagent/agent"
	"toolagent/tools"
)

// ErrNoChoices is returned when the API response has no choices.
var ErrNoChoices = errors.New("no choices in API response")

var _ agent.ModelClient = (*Client)(nil)

// Client implements agent.ModelClient on top of go-openai.
type Client struct {
	client  *ai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a client for the endpoint at baseURL. A zero timeout
// leaves the deadline to the caller's context.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := ai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		client:  ai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends the transcript and tool definitions and returns the assistant reply.
func (c *Client) Complete(ctx context.Context, messages []agent.Message, defs []tools.Definition) (agent.Message, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := ai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toWire(messages),
		Tools:    toolDefinitions(defs),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.Message{}, ErrNoChoices
	}

	choice := resp.Choices[0]
	zap.S().Debugw("completion",
		"model", resp.Model,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return fromWire(choice.Message), nil
}

func toWire(messages []agent.Message) []ai.ChatCompletionMessage {
	out := make([]ai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := ai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			args := string(tc.Arguments)
			if args == "" {
				args = "{}"
			}
			msg.ToolCalls = append(msg.ToolCalls, ai.ToolCall{
				ID:   tc.ID,
				Type: ai.ToolTypeFunction,
				Function: ai.FunctionCall{
					Name:      tc.Name,
					Arguments: args,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toolDefinitions(defs []tools.Definition) []ai.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]ai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, ai.Tool{
			Type: ai.ToolTypeFunction,
			Function: &ai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

// fromWire converts the provider reply, recovering tool calls written inline
// as text and giving every call a unique id.
func fromWire(msg ai.ChatCompletionMessage) agent.Message {
	out := agent.Message{Role: agent.RoleAssistant, Content: msg.Content}

	for _, tc := range msg.ToolCalls {
		args := strings.TrimSpace(tc.Function.Arguments)
		if args == "" {
			args = "{}"
		}
		out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}

	if len(out.ToolCalls) == 0 {
		if calls, ok := parseInlineToolCalls(msg.Content); ok {
			zap.S().Debugf("[llm] recovered %d inline tool call(s)", len(calls))
			out.ToolCalls = calls
			out.Content = cleanResponse(msg.Content)
		}
	}

	seen := make(map[string]bool, len(out.ToolCalls))
	for i := range out.ToolCalls {
		id := out.ToolCalls[i].ID
		if id == "" || seen[id] {
			id = "call_" + uuid.NewString()
			out.ToolCalls[i].ID = id
		}
		seen[id] = true
	}

	return out
}
