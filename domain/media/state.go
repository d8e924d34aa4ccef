package media

// State is a step of a single pipeline run
type State string

const (
	StateIdle         State = "idle"
	StatePersisting   State = "persisting"
	StateExtracting   State = "extracting"
	StateNormalizing  State = "normalizing"
	StateTranscribing State = "transcribing"
	StateCleanup      State = "cleanup"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

var transitions = map[State][]State{
	StateIdle:         {StatePersisting, StateCleanup},
	StatePersisting:   {StateExtracting, StateCleanup},
	StateExtracting:   {StateNormalizing, StateCleanup},
	StateNormalizing:  {StateTranscribing, StateCleanup},
	StateTranscribing: {StateCleanup},
	StateCleanup:      {StateDone, StateFailed},
}

// ValidTransition reports whether a run may move from one state to another.
// Every run passes through StateCleanup before reaching a terminal state.
func ValidTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for StateDone and StateFailed
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
