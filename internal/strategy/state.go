package strategy

// State is the lifecycle state of a strategy instance.
//
// Valid transitions:
//
//	Stopped -> Running  (Start, runs Initialize)
//	Running -> Paused   (Pause)
//	Paused  -> Running  (Resume)
//	Running -> Stopped  (Stop, runs Shutdown)
//	Paused  -> Stopped  (Stop, runs Shutdown)
//
// Error is reached when Initialize fails; the only way out is an explicit
// Stop followed by Start.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
