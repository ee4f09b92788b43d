package stream

// State is the lifecycle of a stream consumer.
type State int

const (
	Disconnected State = iota
	Connected
	// Erroring means the last connection ended with a transport error and
	// nothing has been opened since.
	Erroring
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Erroring:
		return "erroring"
	default:
		return "disconnected"
	}
}
