package batch

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of one sample within a batch.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// ErrInvalidTransition is returned for any move outside
// pending -> running -> {succeeded, failed}.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StatePending: {StateRunning},
	StateRunning: {StateSucceeded, StateFailed},
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// To returns the next state or ErrInvalidTransition.
func (s State) To(next State) (State, error) {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
}
