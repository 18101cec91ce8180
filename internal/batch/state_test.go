package batch

import (
	"errors"
	"testing"
)

func TestState_Transitions(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{StatePending, StateRunning, true},
		{StateRunning, StateSucceeded, true},
		{StateRunning, StateFailed, true},
		{StatePending, StateSucceeded, false},
		{StatePending, StateFailed, false},
		{StateSucceeded, StateRunning, false},
		{StateFailed, StateSucceeded, false},
		{StateRunning, StatePending, false},
	}
	for _, tc := range cases {
		got, err := tc.from.To(tc.to)
		if tc.ok {
			if err != nil || got != tc.to {
				t.Errorf("%s -> %s: got %s, %v", tc.from, tc.to, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: want ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Errorf("%s -> %s: state changed to %s on error", tc.from, tc.to, got)
		}
	}
}

func TestState_Terminal(t *testing.T) {
	for s, want := range map[State]bool{
		StatePending:   false,
		StateRunning:   false,
		StateSucceeded: true,
		StateFailed:    true,
	} {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestPolicy_Decide(t *testing.T) {
	ok := Result{State: StateSucceeded, Succeeded: true}
	bad := Result{State: StateFailed}

	if PolicyFor(false) != StopOnFailure || PolicyFor(true) != ContinueOnFailure {
		t.Fatal("PolicyFor mapping wrong")
	}
	if StopOnFailure.Decide(ok) != Continue {
		t.Error("stop-on-failure should continue after success")
	}
	if StopOnFailure.Decide(bad) != Halt {
		t.Error("stop-on-failure should halt after failure")
	}
	if ContinueOnFailure.Decide(bad) != Continue {
		t.Error("continue-on-failure should continue after failure")
	}
}
