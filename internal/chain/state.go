package chain

// State is the position of a Runner in its lifecycle.
type State int

const (
	// StateIdle is a runner that has not been started.
	StateIdle State = iota
	// StateAwaitingHook is a runner suspended on an in-flight hook.
	StateAwaitingHook
	// StateAdvancingOption is a runner moving to the next hook or key.
	StateAdvancingOption
	// StateDone is a runner that finished, successfully or not.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingHook:
		return "awaiting_hook"
	case StateAdvancingOption:
		return "advancing_option"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
