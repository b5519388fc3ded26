package playback

import "fmt"

// State is the transport state of an Engine.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind classifies engine events.
type EventKind int

const (
	// EventState reports a transport state change.
	EventState EventKind = iota
	// EventEnded reports that playback reached the end of the buffer.
	EventEnded
	// EventRendered reports completion of RenderProcessed; Err is set on
	// failure.
	EventRendered
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventEnded:
		return "ended"
	case EventRendered:
		return "rendered"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to subscribers.
type Event struct {
	Kind  EventKind
	State State
	Err   error
}

// Compare selects what is heard during A/B comparison.
type Compare int

const (
	// CompareLive plays the original buffer through the live chain.
	CompareLive Compare = iota
	// CompareProcessed plays the offline render with the chain bypassed.
	CompareProcessed
)
