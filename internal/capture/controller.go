// Package capture implements the capture-screen controller: camera-facing
// state, the shared debounce gate, the torch retrigger shim and the
// capture → recognized → result workflow.
package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rbright/cardscan/internal/fsm"
)

// Timing holds the fixed delays used by the controller.
type Timing struct {
	Debounce       time.Duration
	Settle         time.Duration
	Recognize      time.Duration
	TorchRetrigger time.Duration
}

// DefaultTiming returns the delays used by the capture screens.
func DefaultTiming() Timing {
	return Timing{
		Debounce:       500 * time.Millisecond,
		Settle:         250 * time.Millisecond,
		Recognize:      time.Second,
		TorchRetrigger: 300 * time.Millisecond,
	}
}

// Option customizes a Controller at construction.
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTiming overrides the default delays.
func WithTiming(timing Timing) Option {
	return func(c *Controller) {
		c.timing = timing
	}
}

// WithInitial sets the lens and desired torch the screen mounts with.
func WithInitial(lens LensFacing, torch Torch) Option {
	return func(c *Controller) {
		if lens != "" {
			c.lens = lens
		}
		if torch != "" {
			c.torch = torch
		}
	}
}

// WithListener registers fn to receive every changed snapshot.
// Snapshots may arrive out of order across goroutines; compare Version.
func WithListener(fn func(State)) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// Controller owns one capture screen's state. It is the sole writer of that
// state; every mutation happens under mu.
type Controller struct {
	logger     *slog.Logger
	camera     Camera
	navigator  Navigator
	recognizer Recognizer
	clock      clockwork.Clock
	timing     Timing
	listener   func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	lens      LensFacing
	torch     Torch
	ready     bool
	workflow  fsm.State
	result    *Result
	captureID string
	lastErr   string
	closed    bool
	version   uint64
	applied   CameraConfig
	configSeq uint64
	pending   *pendingConfig

	// camMu serializes camera calls, which run outside mu.
	camMu      sync.Mutex
	camSeq     uint64
	camRelease bool

	gate        gate
	recognition task
	torchTask   task
}

// NewController constructs a controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	camera Camera,
	navigator Navigator,
	recognizer Recognizer,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if camera == nil {
		camera = noopCamera{}
	}
	if navigator == nil {
		navigator = noopNavigator{}
	}
	if recognizer == nil {
		recognizer = SimulatedRecognizer{}
	}

	c := &Controller{
		logger:     logger,
		camera:     camera,
		navigator:  navigator,
		recognizer: recognizer,
		clock:      clockwork.NewRealClock(),
		timing:     DefaultTiming(),
		lens:       LensBack,
		torch:      TorchOff,
		workflow:   fsm.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gate = newGate(c.timing.Debounce)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// MarkReady records the camera readiness signal and applies the stored
// configuration. Only the first call has an effect.
func (c *Controller) MarkReady() {
	c.mu.Lock()
	if c.closed || c.ready {
		c.mu.Unlock()
		return
	}
	c.ready = true
	if c.torch == TorchOn {
		c.retriggerTorchLocked()
	} else {
		c.configureLocked(false)
	}
	snap := c.changedLocked()
	pending := c.takePendingLocked()
	c.mu.Unlock()

	c.apply(pending)
	c.logger.Info("camera ready", "lens", snap.Lens, "torch", snap.Torch)
	c.notify(snap)
}

// ToggleLens flips between the back and front lens.
func (c *Controller) ToggleLens() bool {
	return c.guard("toggle_lens", func() bool {
		c.lens = c.lens.Flip()
		if c.ready {
			c.configureLocked(c.applied.TorchEnabled)
		}
		return true
	})
}

// ToggleFlash flips the desired torch state. Turning it on while the camera
// is ready runs the retrigger sequence; turning it off cancels a pending one.
func (c *Controller) ToggleFlash() bool {
	return c.guard("toggle_flash", func() bool {
		if c.torch == TorchOff {
			c.torch = TorchOn
			if c.ready {
				c.retriggerTorchLocked()
			}
			return true
		}

		c.torch = TorchOff
		c.torchTask.cancel()
		if c.ready {
			c.configureLocked(false)
		}
		return true
	})
}

// Capture starts a recognition attempt. It has no effect unless idle.
func (c *Controller) Capture() bool {
	return c.guard("capture", func() bool {
		next, err := fsm.Transition(c.workflow, fsm.EventCapture)
		if err != nil {
			c.logger.Debug("capture ignored", "workflow", c.workflow)
			return false
		}
		c.workflow = next
		c.captureID = uuid.NewString()
		c.lastErr = ""
		c.recognition.arm(c.clock, c.timing.Settle, c.settle)
		c.logger.Info("capture started", "capture_id", c.captureID)
		return true
	})
}

// Reset clears a shown result and returns to idle. No-op in any other state.
func (c *Controller) Reset() bool {
	return c.guard("reset", func() bool {
		next, err := fsm.Transition(c.workflow, fsm.EventReset)
		if err != nil {
			c.logger.Debug("reset ignored", "workflow", c.workflow)
			return false
		}
		c.workflow = next
		c.result = nil
		return true
	})
}

// Exit tears the screen down and asks the host to navigate back.
func (c *Controller) Exit() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if !c.gate.allow(c.clock.Now()) {
		c.mu.Unlock()
		c.logger.Debug("intent debounced", "intent", "exit")
		return false
	}
	c.shutdownLocked()
	snap := c.changedLocked()
	c.mu.Unlock()

	c.release()
	c.logger.Info("capture screen exit", "workflow", snap.Workflow)
	c.navigator.GoBack()
	c.notify(snap)
	return true
}

// Close unmounts the screen without navigating. It is safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.shutdownLocked()
	snap := c.changedLocked()
	c.mu.Unlock()

	c.release()
	c.notify(snap)
}

// guard runs action behind the debounce gate. The gate closes even when
// action reports no change.
func (c *Controller) guard(intent string, action func() bool) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if !c.gate.allow(c.clock.Now()) {
		c.mu.Unlock()
		c.logger.Debug("intent debounced", "intent", intent)
		return false
	}

	changed := action()
	var snap State
	if changed {
		snap = c.changedLocked()
	}
	pending := c.takePendingLocked()
	c.mu.Unlock()

	c.apply(pending)
	if changed {
		c.notify(snap)
	}
	return changed
}

func (c *Controller) settle(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.recognition.current(gen) {
		c.mu.Unlock()
		return
	}
	c.recognition.done(gen)

	next, err := fsm.Transition(c.workflow, fsm.EventSettle)
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("settle dropped", "error", err.Error())
		return
	}
	c.workflow = next
	c.recognition.arm(c.clock, c.timing.Recognize, c.reveal)
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) reveal(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.recognition.current(gen) {
		c.mu.Unlock()
		return
	}
	captureID := c.captureID
	c.mu.Unlock()

	result, err := c.recognizer.Recognize(c.ctx)
	if err == nil && result == (Result{}) {
		err = ErrRecognitionUnavailable
	}

	c.mu.Lock()
	if c.closed || !c.recognition.current(gen) {
		c.mu.Unlock()
		return
	}
	c.recognition.done(gen)

	event := fsm.EventReveal
	if err != nil {
		event = fsm.EventFail
	}
	next, terr := fsm.Transition(c.workflow, event)
	if terr != nil {
		c.mu.Unlock()
		c.logger.Debug("reveal dropped", "error", terr.Error())
		return
	}
	c.workflow = next
	if err != nil {
		c.result = nil
		c.lastErr = err.Error()
	} else {
		c.result = &result
	}
	snap := c.changedLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("recognition failed", "capture_id", captureID, "error", err.Error())
	} else {
		c.logger.Info("card recognized", "capture_id", captureID, "card_id", result.ID, "name", result.DisplayName)
	}
	c.notify(snap)
}

// retriggerTorchLocked forces the torch off and schedules it back on, which
// re-engages drivers that ignore a direct off→on write on a running session.
func (c *Controller) retriggerTorchLocked() {
	c.configureLocked(false)
	c.torchTask.arm(c.clock, c.timing.TorchRetrigger, c.finishTorchRetrigger)
}

func (c *Controller) finishTorchRetrigger(gen uint64) {
	c.mu.Lock()
	if c.closed || !c.torchTask.current(gen) {
		c.mu.Unlock()
		return
	}
	c.torchTask.done(gen)
	if c.torch != TorchOn || !c.ready {
		c.mu.Unlock()
		return
	}
	c.configureLocked(true)
	pending := c.takePendingLocked()
	c.mu.Unlock()

	c.apply(pending)
}

// pendingConfig is a camera configuration recorded under mu and applied
// after it is released. seq orders configurations written by racing callers.
type pendingConfig struct {
	seq uint64
	cfg CameraConfig
}

// configureLocked records the configuration to apply once mu is released.
// Backends may block on device I/O, so Configure never runs under mu.
func (c *Controller) configureLocked(torch bool) {
	cfg := CameraConfig{Lens: c.lens, TorchEnabled: torch}
	c.applied = cfg
	c.configSeq++
	c.pending = &pendingConfig{seq: c.configSeq, cfg: cfg}
}

func (c *Controller) takePendingLocked() *pendingConfig {
	p := c.pending
	c.pending = nil
	return p
}

// apply hands p to the camera unless a newer configuration already reached it
// or the camera was released.
func (c *Controller) apply(p *pendingConfig) {
	if p == nil {
		return
	}
	c.camMu.Lock()
	defer c.camMu.Unlock()
	if c.camRelease || p.seq <= c.camSeq {
		c.logger.Debug("stale camera config dropped", "seq", p.seq, "applied_seq", c.camSeq)
		return
	}
	c.camSeq = p.seq
	c.camera.Configure(p.cfg)
	c.logger.Debug("camera configured", "lens", p.cfg.Lens, "torch", p.cfg.TorchEnabled, "seq", p.seq)
}

func (c *Controller) release() {
	c.camMu.Lock()
	defer c.camMu.Unlock()
	c.camRelease = true
	c.camera.Release()
}

func (c *Controller) shutdownLocked() {
	c.closed = true
	c.pending = nil
	c.recognition.cancel()
	c.torchTask.cancel()
	c.cancel()
}

func (c *Controller) changedLocked() State {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Lens:        c.lens,
		Torch:       c.torch,
		CameraReady: c.ready,
		Workflow:    c.workflow,
		CaptureID:   c.captureID,
		LastError:   c.lastErr,
		Closed:      c.closed,
		Version:     c.version,
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.listener != nil {
		c.listener(s)
	}
}
