package capture

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// task is one cancellable deferred step. Bumping gen invalidates any
// callback that was scheduled before the bump, even if its timer already fired.
type task struct {
	gen   uint64
	timer clockwork.Timer
}

// arm schedules fn after d and returns the generation it is bound to.
func (t *task) arm(clock clockwork.Clock, d time.Duration, fn func(gen uint64)) uint64 {
	t.cancel()
	gen := t.gen
	t.timer = clock.AfterFunc(d, func() { fn(gen) })
	return gen
}

func (t *task) cancel() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *task) current(gen uint64) bool {
	return t.gen == gen
}

func (t *task) pending() bool {
	return t.timer != nil
}

// done clears the timer handle once the bound callback ran.
func (t *task) done(gen uint64) {
	if t.gen == gen {
		t.timer = nil
	}
}
