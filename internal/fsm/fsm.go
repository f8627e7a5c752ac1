// Package fsm defines the capture workflow states and their legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateRecognized State = "recognized"
	StateResult     State = "result"
)

const (
	EventCapture Event = "capture"
	EventSettle  Event = "settle"
	EventReveal  Event = "reveal"
	EventReset   Event = "reset"
	EventFail    Event = "fail"
)

// Transition returns the workflow state reached by applying event to current.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventCapture:
			return StateCapturing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCapturing:
		switch event {
		case EventSettle:
			return StateRecognized, nil
		case EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecognized:
		switch event {
		case EventReveal:
			return StateResult, nil
		case EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateResult:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// InFlight reports whether a capture attempt is between capture and result.
func (s State) InFlight() bool {
	return s == StateCapturing || s == StateRecognized
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
