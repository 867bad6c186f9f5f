package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_AppendOnlyCopies(t *testing.T) {
	tr := &Transcript{}
	tr.Append(UserMessage("hi"))

	msgs := tr.Messages()
	msgs[0].Content = "mutated"

	last, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, "hi", last.Content)
}

func TestTranscript_MessagesDoNotShareToolCalls(t *testing.T) {
	tr := &Transcript{}
	tr.Append(Message{Role: RoleAssistant, ToolCalls: []ToolCall{
		{ID: "a", Name: "get_weather", Arguments: json.RawMessage(`{"query":"Bengaluru"}`)},
	}})

	msgs := tr.Messages()
	msgs[0].ToolCalls[0].Name = "search_web"
	msgs[0].ToolCalls[0].Arguments[2] = 'X'

	last, _ := tr.Last()
	assert.Equal(t, "get_weather", last.ToolCalls[0].Name)
	assert.JSONEq(t, `{"query":"Bengaluru"}`, string(last.ToolCalls[0].Arguments))
}

func TestTranscript_UnansweredCalls(t *testing.T) {
	tr := &Transcript{}
	tr.Append(UserMessage("q"))
	tr.Append(Message{Role: RoleAssistant, ToolCalls: []ToolCall{
		{ID: "a", Name: "get_weather"},
		{ID: "b", Name: "search_web"},
	}})
	tr.Append(ToolResultMessage(ToolCall{ID: "a", Name: "get_weather"}, "{}"))

	pending := tr.unanswered()
	if assert.Len(t, pending, 1) {
		assert.Equal(t, "b", pending[0].ID)
	}
}

func TestTranscript_EmptyState(t *testing.T) {
	tr := &Transcript{}
	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Equal(t, "", tr.Answer())
	assert.Equal(t, 0, tr.Len())
}

func TestMessage_String(t *testing.T) {
	human := UserMessage("Will it rain in Bengaluru today?").String()
	assert.True(t, strings.Contains(human, " Human Message "))
	assert.Contains(t, human, "Will it rain in Bengaluru today?")

	ai := Message{Role: RoleAssistant, ToolCalls: []ToolCall{
		{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(`{"query":"Bengaluru"}`)},
	}}.String()
	assert.Contains(t, ai, " Ai Message ")
	assert.Contains(t, ai, "get_weather (call_1)")
	assert.Contains(t, ai, `{"query":"Bengaluru"}`)

	tool := ToolResultMessage(ToolCall{ID: "call_1", Name: "get_weather"}, `{"error":"Weather Data Not Found"}`).String()
	assert.Contains(t, tool, " Tool Message ")
	assert.Contains(t, tool, "Name: get_weather")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_model", StateAwaitingModel.String())
	assert.Equal(t, "awaiting_tools", StateAwaitingTools.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(42).String())
}
