package deploy

// RunState is the lifecycle state of a deployable.
type RunState uint8

const (
	Created RunState = iota
	Started
	Stopped
	Destroyed
)

func (s RunState) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Started:
		return "STARTED"
	case Stopped:
		return "STOPPED"
	case Destroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}
