package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateFinalizing, next)

	next, err = Transition(next, EventFinalized)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailureReturnsToIdle(t *testing.T) {
	for _, state := range []State{StateRecording, StateFinalizing} {
		for _, event := range []Event{EventFail, EventCancel} {
			next, err := Transition(state, event)
			require.NoError(t, err)
			require.Equal(t, StateIdle, next, "%s --(%s)", state, event)
		}
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle stop", state: StateIdle, event: EventStop},
		{name: "idle cancel", state: StateIdle, event: EventCancel},
		{name: "idle fail", state: StateIdle, event: EventFail},
		{name: "idle finalized", state: StateIdle, event: EventFinalized},
		{name: "recording start", state: StateRecording, event: EventStart},
		{name: "recording finalized", state: StateRecording, event: EventFinalized},
		{name: "finalizing start", state: StateFinalizing, event: EventStart},
		{name: "finalizing stop", state: StateFinalizing, event: EventStop},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestActive(t *testing.T) {
	require.False(t, StateIdle.Active())
	require.True(t, StateRecording.Active())
	require.True(t, StateFinalizing.Active())
}
