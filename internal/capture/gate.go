package capture

import "time"

// gate collapses rapid intents into one accepted action per window.
// It is shared by every intent of a controller and carries no queue.
type gate struct {
	window   time.Duration
	reopenAt time.Time
}

func newGate(window time.Duration) gate {
	return gate{window: window}
}

// allow closes the gate and returns true when it is open at now.
func (g *gate) allow(now time.Time) bool {
	if now.Before(g.reopenAt) {
		return false
	}
	g.reopenAt = now.Add(g.window)
	return true
}
