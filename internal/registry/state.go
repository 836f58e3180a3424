package registry

import (
	"errors"
	"fmt"
)

// State is where a plugin sits in its host lifecycle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
	StateActive   State = "active"
	StateRejected State = "rejected"
)

// ErrInvalidTransition is returned when a lifecycle step is attempted out of order.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// A descriptor that cannot even be loaded goes straight from unloaded to rejected.
var transitions = map[State][]State{
	StateUnloaded: {StateLoaded, StateRejected},
	StateLoaded:   {StateActive, StateRejected},
	StateActive:   {StateUnloaded},
	StateRejected: {StateUnloaded},
}

// CanTransition reports whether a plugin may move from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type lifecycle struct {
	state State
}

func (l *lifecycle) advance(to State) error {
	if !CanTransition(l.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.state, to)
	}
	l.state = to
	return nil
}
