package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message roles, matching the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in the conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// UserMessage builds the opening message of a conversation.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ToolResultMessage carries the payload produced for one tool call.
func ToolResultMessage(tc ToolCall, payload string) Message {
	return Message{Role: RoleTool, Content: payload, ToolCallID: tc.ID, Name: tc.Name}
}

// String renders the message the way the graph variant prints the transcript.
func (m Message) String() string {
	var title string
	switch m.Role {
	case RoleUser:
		title = "Human Message"
	case RoleAssistant:
		title = "Ai Message"
	case RoleTool:
		title = "Tool Message"
	default:
		title = "System Message"
	}

	pad := (80 - len(title) - 2) / 2
	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", pad) + " " + title + " " + strings.Repeat("=", pad))
	sb.WriteString("\n")
	if m.Role == RoleTool && m.Name != "" {
		sb.WriteString("Name: " + m.Name + "\n")
	}
	if m.Content != "" {
		sb.WriteString("\n" + m.Content + "\n")
	}
	if len(m.ToolCalls) > 0 {
		sb.WriteString("Tool Calls:\n")
		for _, tc := range m.ToolCalls {
			sb.WriteString(fmt.Sprintf("  %s (%s)\n  Args: %s\n", tc.Name, tc.ID, string(tc.Arguments)))
		}
	}
	return sb.String()
}

// Transcript is the append-only conversation owned by a single run.
type Transcript struct {
	messages []Message
}

// Append adds m to the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Messages returns a deep copy of the messages so far; callers may modify it
// without touching the transcript.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		if m.ToolCalls != nil {
			calls := make([]ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				tc.Arguments = append(json.RawMessage(nil), tc.Arguments...)
				calls[j] = tc
			}
			m.ToolCalls = calls
		}
		out[i] = m
	}
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message, or false when empty.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Answer returns the content of the last assistant message.
func (t *Transcript) Answer() string {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant {
			return t.messages[i].Content
		}
	}
	return ""
}

// unanswered lists tool calls in the transcript that have no matching result yet.
func (t *Transcript) unanswered() []ToolCall {
	answered := make(map[string]bool)
	for _, m := range t.messages {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	var pending []ToolCall
	for _, m := range t.messages {
		for _, tc := range m.ToolCalls {
			if !answered[tc.ID] {
				pending = append(pending, tc)
			}
		}
	}
	return pending
}
