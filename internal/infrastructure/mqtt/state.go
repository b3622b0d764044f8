package mqtt

// State is a step in the session lifecycle.
type State int

// Session lifecycle states.
const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StatePublishing
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StatePublishing:
		return "publishing"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
