package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateAllow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newGate(500 * time.Millisecond)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "first intent", offset: 0, want: true},
		{name: "inside window", offset: 100 * time.Millisecond, want: false},
		{name: "just before reopen", offset: 499 * time.Millisecond, want: false},
		{name: "at reopen", offset: 500 * time.Millisecond, want: true},
		{name: "window measured from last accepted", offset: 900 * time.Millisecond, want: false},
		{name: "after second window", offset: time.Second, want: true},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, g.allow(start.Add(tc.offset)), tc.name)
	}
}

func TestGateZeroWindowAlwaysOpen(t *testing.T) {
	now := time.Now()
	g := newGate(0)
	require.True(t, g.allow(now))
	require.True(t, g.allow(now))
}
