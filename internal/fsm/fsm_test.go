package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventCapture)
	require.NoError(t, err)
	require.Equal(t, StateCapturing, next)

	next, err = Transition(next, EventSettle)
	require.NoError(t, err)
	require.Equal(t, StateRecognized, next)

	next, err = Transition(next, EventReveal)
	require.NoError(t, err)
	require.Equal(t, StateResult, next)

	next, err = Transition(next, EventReset)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailReturnsToIdleOnlyWhileInFlight(t *testing.T) {
	for _, state := range []State{StateCapturing, StateRecognized} {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}

	for _, state := range []State{StateIdle, StateResult} {
		next, err := Transition(state, EventFail)
		require.Error(t, err)
		require.Equal(t, state, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle settle invalid", state: StateIdle, event: EventSettle, want: StateIdle, wantErr: true},
		{name: "idle reset invalid", state: StateIdle, event: EventReset, want: StateIdle, wantErr: true},
		{name: "capturing capture invalid", state: StateCapturing, event: EventCapture, want: StateCapturing, wantErr: true},
		{name: "capturing reveal invalid", state: StateCapturing, event: EventReveal, want: StateCapturing, wantErr: true},
		{name: "recognized capture invalid", state: StateRecognized, event: EventCapture, want: StateRecognized, wantErr: true},
		{name: "recognized reset invalid", state: StateRecognized, event: EventReset, want: StateRecognized, wantErr: true},
		{name: "result capture invalid", state: StateResult, event: EventCapture, want: StateResult, wantErr: true},
		{name: "result settle invalid", state: StateResult, event: EventSettle, want: StateResult, wantErr: true},
		{name: "result reset valid", state: StateResult, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventCapture)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestInFlight(t *testing.T) {
	require.False(t, StateIdle.InFlight())
	require.True(t, StateCapturing.InFlight())
	require.True(t, StateRecognized.InFlight())
	require.False(t, StateResult.InFlight())
}
