// Package fsm defines the dictation state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
)

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventFinalized Event = "finalized"
	EventCancel    Event = "cancel"
	EventFail      Event = "fail"
)

// Transition returns the state reached from current on event. Idle is the
// only state a session can be started from; every failure lands back in idle.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateFinalizing, nil
		case EventCancel, EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinalizing:
		switch event {
		case EventFinalized, EventCancel, EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Active reports whether a session owns capture or recognizer resources.
func (s State) Active() bool {
	return s == StateRecording || s == StateFinalizing
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
