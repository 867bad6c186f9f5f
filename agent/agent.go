// Package agent provides the agentic loop that connects the LLM to tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"toolagent/logger"
	"toolagent/tools"
)

// DefaultMaxTurns bounds model invocations per conversation.
const DefaultMaxTurns = 20

var (
	// ErrModelUnavailable is returned when the model client fails. It is fatal for the run.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMaxTurns is returned when the model keeps requesting tools past the turn limit.
	ErrMaxTurns = errors.New("exceeded maximum model turns")
)

// ModelClient produces the next assistant message for a transcript.
type ModelClient interface {
	Complete(ctx context.Context, messages []Message, defs []tools.Definition) (Message, error)
}

// Agent runs conversations between the LLM and the registered tools.
type Agent struct {
	model    ModelClient
	registry *tools.Registry
	maxTurns int

	// SystemPrompt, when set, opens every transcript.
	SystemPrompt string

	// OnMessage is called for every message appended to the transcript, in order.
	OnMessage func(Message)

	// OnTransition is called whenever the loop changes state.
	OnTransition func(from, to State)
}

// New creates an Agent. maxTurns <= 0 selects DefaultMaxTurns.
func New(model ModelClient, registry *tools.Registry, maxTurns int) *Agent {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Agent{
		model:    model,
		registry: registry,
		maxTurns: maxTurns,
	}
}

// Run sends a message and handles any tool calls in a loop, returning the final answer.
func (a *Agent) Run(ctx context.Context, userMessage string) (string, error) {
	t, err := a.Converse(ctx, userMessage)
	if err != nil {
		return "", err
	}
	return t.Answer(), nil
}

// Converse runs the loop to completion and returns the transcript. On error the
// transcript holds everything appended before the failure.
func (a *Agent) Converse(ctx context.Context, userMessage string) (*Transcript, error) {
	t := &Transcript{}
	if a.SystemPrompt != "" {
		a.append(t, Message{Role: RoleSystem, Content: a.SystemPrompt})
	}
	a.append(t, UserMessage(userMessage))

	defs := a.registry.Definitions()
	state := StateAwaitingModel
	turns := 0

	for {
		switch state {
		case StateAwaitingModel:
			if turns == a.maxTurns {
				return t, fmt.Errorf("%w (%d)", ErrMaxTurns, a.maxTurns)
			}
			turns++

			reply, err := a.complete(ctx, t, defs)
			if err != nil {
				return t, err
			}
			a.append(t, reply)
			state = a.transition(state, next(reply))

		case StateAwaitingTools:
			last, _ := t.Last()
			for _, tc := range last.ToolCalls {
				a.append(t, a.executeTool(ctx, tc))
			}
			state = a.transition(state, StateAwaitingModel)

		case StateDone:
			zap.S().Debugw("conversation done", "turns", turns, "messages", t.Len())
			return t, nil
		}
	}
}

// Plan asks the model once, with tools bound, and returns the tool calls it
// requests without executing them.
func (a *Agent) Plan(ctx context.Context, userMessage string) ([]ToolCall, error) {
	t := &Transcript{}
	if a.SystemPrompt != "" {
		t.Append(Message{Role: RoleSystem, Content: a.SystemPrompt})
	}
	t.Append(UserMessage(userMessage))

	reply, err := a.complete(ctx, t, a.registry.Definitions())
	if err != nil {
		return nil, err
	}
	return reply.ToolCalls, nil
}

func (a *Agent) complete(ctx context.Context, t *Transcript, defs []tools.Definition) (Message, error) {
	reply, err := a.model.Complete(ctx, t.Messages(), defs)
	if err != nil {
		zap.S().Errorw("model call failed", "error", err)
		return Message{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	reply.Role = RoleAssistant

	zap.S().Debugw("model response",
		"content_len", len(reply.Content),
		"tool_calls", len(reply.ToolCalls),
	)
	for i, tc := range reply.ToolCalls {
		zap.S().Debugf("[agent] tool_call[%d]: %s(%s) id=%s", i, tc.Name, string(tc.Arguments), tc.ID)
	}
	return reply, nil
}

// executeTool always yields exactly one result message for tc. Failures,
// including unknown tools, become error payloads so the model can recover.
func (a *Agent) executeTool(ctx context.Context, tc ToolCall) Message {
	start := time.Now()
	log := logger.WithTool(zap.S(), tc.Name, tc.ID)

	result, err := a.registry.Execute(ctx, tc.Name, tc.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			log.Warnw("model requested unknown tool")
		} else {
			log.Warnw("tool failed", "error", err)
		}
		result = tools.ErrorPayload(err.Error())
	}

	log.Debugw("tool executed", "duration_ms", time.Since(start).Milliseconds(), "result_len", len(result))
	return ToolResultMessage(tc, result)
}

func (a *Agent) append(t *Transcript, m Message) {
	t.Append(m)
	if a.OnMessage != nil {
		a.OnMessage(m)
	}
}

func (a *Agent) transition(from, to State) State {
	if a.OnTransition != nil {
		a.OnTransition(from, to)
	}
	return to
}
