package llm

import (
	"encoding/json"
	"strings"

	"toolagent/agent"
)

const (
	functionOpen  = "<function="
	functionClose = "</function>"
	paramOpen     = "<parameter="
	paramClose    = "</parameter>"
)

// parseInlineToolCalls recovers tool calls that some models print as text
// instead of returning structured calls. Two shapes are understood:
//
//	<function=get_weather>{"query": "Bengaluru"}</function>
//	<function=get_weather><parameter=query>Bengaluru</parameter></function>
func parseInlineToolCalls(content string) ([]agent.ToolCall, bool) {
	var calls []agent.ToolCall
	remaining := content

	for {
		start := strings.Index(remaining, functionOpen)
		if start == -1 {
			break
		}

		nameStart := start + len(functionOpen)
		nameEnd := strings.Index(remaining[nameStart:], ">")
		if nameEnd == -1 {
			break
		}
		name := strings.TrimSpace(remaining[nameStart : nameStart+nameEnd])

		body := remaining[nameStart+nameEnd+1:]
		end := strings.Index(body, functionClose)
		if end == -1 {
			end = len(body)
			remaining = ""
		} else {
			remaining = body[end+len(functionClose):]
		}
		body = strings.TrimSpace(body[:end])

		args, ok := inlineArguments(body)
		if name == "" || !ok {
			continue
		}
		calls = append(calls, agent.ToolCall{Name: name, Arguments: args})
	}

	return calls, len(calls) > 0
}

func inlineArguments(body string) (json.RawMessage, bool) {
	if strings.HasPrefix(body, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(body), &obj); err != nil {
			return nil, false
		}
		return json.RawMessage(body), true
	}

	args := make(map[string]any)
	remaining := body
	for {
		paramStart := strings.Index(remaining, paramOpen)
		if paramStart == -1 {
			break
		}

		nameStart := paramStart + len(paramOpen)
		nameEnd := strings.Index(remaining[nameStart:], ">")
		if nameEnd == -1 {
			break
		}
		paramName := remaining[nameStart : nameStart+nameEnd]

		valueStart := nameStart + nameEnd + 1
		valueEnd := strings.Index(remaining[valueStart:], paramClose)
		if valueEnd == -1 {
			break
		}
		args[paramName] = strings.TrimSpace(remaining[valueStart : valueStart+valueEnd])
		remaining = remaining[valueStart+valueEnd+len(paramClose):]
	}

	if len(args) == 0 {
		return nil, false
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// cleanResponse keeps whatever text the model wrote before its first inline call.
func cleanResponse(content string) string {
	if idx := strings.Index(content, functionOpen); idx >= 0 {
		return strings.TrimSpace(content[:idx])
	}
	return content
}
