package domain

// Action tells the host what to do with the outcome of a keystroke.
type Action string

const (
	// ActionCommit: append Output to the text stream and reset the buffer.
	ActionCommit Action = "commit"
	// ActionComposing: keep Buffer for the next keystroke, show nothing yet.
	ActionComposing Action = "composing"
	// ActionClear: drop the buffer; this composition path is dead.
	ActionClear Action = "clear"
)

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCommit, ActionComposing, ActionClear:
		return true
	}
	return false
}

// Outcome is the result of processing one key against a buffer.
type Outcome struct {
	Output string `json:"output"`
	Buffer string `json:"buffer"`
	Action Action `json:"action"`
}

// Commit finalizes a converted unit. The buffer is always reset.
func Commit(output string) Outcome {
	return Outcome{Output: output, Action: ActionCommit}
}

// Composing keeps accumulating keys in buffer.
func Composing(buffer string) Outcome {
	return Outcome{Buffer: buffer, Action: ActionComposing}
}

// Clear abandons the current composition.
func Clear() Outcome {
	return Outcome{Action: ActionClear}
}
