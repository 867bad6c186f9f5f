package agent

// State is a position in the conversation loop.
type State int

const (
	// StateAwaitingModel means the next step is a model invocation over the full transcript.
	StateAwaitingModel State = iota
	// StateAwaitingTools means the last model message carries tool calls still to execute.
	StateAwaitingTools
	// StateDone means the last model message is the final answer.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingTools:
		return "awaiting_tools"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// next picks the state that follows a model reply.
func next(reply Message) State {
	if len(reply.ToolCalls) > 0 {
		return StateAwaitingTools
	}
	return StateDone
}
