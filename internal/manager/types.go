package manager

// State is the supervisor lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	// StateCrashed is reported when the child exited without a stop request.
	// It is observed lazily by Status and Start, never pushed.
	StateCrashed State = "crashed"
)
