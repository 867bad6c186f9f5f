package llm

import (
	"strings"
	"testing"

	ai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlineToolCalls(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
		wantArgs  []string
	}{
		{
			name:      "json body",
			content:   `<function=get_weather>{"query": "Bengaluru"}</function>`,
			wantNames: []string{"get_weather"},
			wantArgs:  []string{`{"query":"Bengaluru"}`},
		},
		{
			name:      "parameter tags",
			content:   "<function=search_web>\n<parameter=query>\nKolkata\n</parameter>\n</function>",
			wantNames: []string{"search_web"},
			wantArgs:  []string{`{"query":"Kolkata"}`},
		},
		{
			name:      "several calls",
			content:   `<function=get_weather>{"query":"Bengaluru"}</function><function=search_web>{"query":"Kolkata"}</function>`,
			wantNames: []string{"get_weather", "search_web"},
			wantArgs:  []string{`{"query":"Bengaluru"}`, `{"query":"Kolkata"}`},
		},
		{
			name:    "no markup",
			content: "The sky is blue because of Rayleigh scattering.",
		},
		{
			name:    "broken json is ignored",
			content: `<function=get_weather>{"query": </function>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, ok := parseInlineToolCalls(tt.content)
			assert.Equal(t, len(tt.wantNames) > 0, ok)
			require.Len(t, calls, len(tt.wantNames))
			for i, c := range calls {
				assert.Equal(t, tt.wantNames[i], c.Name)
				assert.JSONEq(t, tt.wantArgs[i], string(c.Arguments))
			}
		})
	}
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "Checking now.", cleanResponse("Checking now.\n<function=get_weather>{}</function>"))
	assert.Equal(t, "", cleanResponse("<function=get_weather>{}</function>"))
	assert.Equal(t, "plain", cleanResponse("plain"))
}

func TestFromWire_DuplicateAndMissingIDs(t *testing.T) {
	msg := fromWire(ai.ChatCompletionMessage{
		Role: ai.ChatMessageRoleAssistant,
		ToolCalls: []ai.ToolCall{
			{ID: "same", Type: ai.ToolTypeFunction, Function: ai.FunctionCall{Name: "get_weather", Arguments: `{"query":"a"}`}},
			{ID: "same", Type: ai.ToolTypeFunction, Function: ai.FunctionCall{Name: "get_weather", Arguments: `{"query":"b"}`}},
			{Type: ai.ToolTypeFunction, Function: ai.FunctionCall{Name: "search_web"}},
		},
	})

	require.Len(t, msg.ToolCalls, 3)
	assert.Equal(t, "same", msg.ToolCalls[0].ID)
	assert.NotEqual(t, "same", msg.ToolCalls[1].ID)
	assert.True(t, strings.HasPrefix(msg.ToolCalls[2].ID, "call_"))
	assert.Equal(t, "{}", string(msg.ToolCalls[2].Arguments))
}
