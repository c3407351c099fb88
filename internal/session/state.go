package session

// State is the game session state.
type State int

// Session states, in the order a game moves through them.
const (
	Idle State = iota
	Menu
	Playing
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Menu:
		return "menu"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Finish reasons.
const (
	ReasonCompleted = "completed"
	ReasonFailed    = "failed"
	ReasonStopped   = "stopped"
)
