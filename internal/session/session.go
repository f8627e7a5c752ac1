// Package session hosts one capture screen: it mounts a capture controller,
// opens the camera, serves IPC intents, and reports the outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/fsm"
	"github.com/rbright/cardscan/internal/ipc"
)

// ErrNotMounted is returned for intents received before or without a mounted screen.
var ErrNotMounted = errors.New("capture screen not mounted")

const (
	// eventBuffer bounds snapshots queued for the observer.
	eventBuffer = 64
	// cleanupTimeout bounds the exit cue and notification dismissal.
	cleanupTimeout = 1500 * time.Millisecond
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	SessionID  string
	Exited     bool
	Captures   int
	Recognized int
	Failures   int
	LastResult *capture.Result
	Final      capture.State
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowCapturing(context.Context)
	ShowRecognized(context.Context)
	ShowResult(context.Context, capture.Result)
	ShowError(context.Context, string)
	CueShutter(context.Context)
	CueResult(context.Context)
	CueExit(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowCapturing(context.Context)              {}
func (noopIndicator) ShowRecognized(context.Context)             {}
func (noopIndicator) ShowResult(context.Context, capture.Result) {}
func (noopIndicator) ShowError(context.Context, string)          {}
func (noopIndicator) CueShutter(context.Context)                 {}
func (noopIndicator) CueResult(context.Context)                  {}
func (noopIndicator) CueExit(context.Context)                    {}
func (noopIndicator) Hide(context.Context)                       {}

// ResultSink receives every card that reaches the result state.
type ResultSink interface {
	Publish(context.Context, capture.Result) error
}

// ResultSinkFunc adapts a function to the ResultSink interface.
type ResultSinkFunc func(context.Context, capture.Result) error

func (f ResultSinkFunc) Publish(ctx context.Context, result capture.Result) error {
	return f(ctx, result)
}

// CameraOpener starts a camera for lens. onReady may be called from any goroutine.
type CameraOpener func(lens capture.LensFacing, onReady func()) (capture.Camera, error)

// Options wires a session Controller.
type Options struct {
	// ID names the session; a random one is generated when empty.
	ID         string
	Logger     *slog.Logger
	OpenCamera CameraOpener
	Indicator  Indicator
	Results    ResultSink
	// Navigator runs after the screen exits, before Run returns.
	Navigator  capture.Navigator
	Recognizer capture.Recognizer
	Lens       capture.LensFacing
	Torch      capture.Torch
	// Capture carries extra controller options such as clock and timing.
	Capture []capture.Option
}

// Controller owns one capture screen lifecycle.
type Controller struct {
	logger    *slog.Logger
	open      CameraOpener
	indicator Indicator
	results   ResultSink
	navigator capture.Navigator
	recog     capture.Recognizer
	lens      capture.LensFacing
	torch     capture.Torch
	extra     []capture.Option
	id        string

	mu     sync.RWMutex
	screen *capture.Controller

	exited   chan struct{}
	exitOnce sync.Once
	events   chan capture.State
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.OpenCamera == nil {
		opts.OpenCamera = func(capture.LensFacing, func()) (capture.Camera, error) {
			return nil, errors.New("no camera backend configured")
		}
	}
	if opts.Indicator == nil {
		opts.Indicator = noopIndicator{}
	}
	if opts.Results == nil {
		opts.Results = ResultSinkFunc(func(context.Context, capture.Result) error { return nil })
	}
	if opts.Navigator == nil {
		opts.Navigator = capture.NavigatorFunc(func() {})
	}
	if opts.Lens == "" {
		opts.Lens = capture.LensBack
	}
	if opts.Torch == "" {
		opts.Torch = capture.TorchOff
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Controller{
		logger:    opts.Logger.With("session_id", id),
		open:      opts.OpenCamera,
		indicator: opts.Indicator,
		results:   opts.Results,
		navigator: opts.Navigator,
		recog:     opts.Recognizer,
		lens:      opts.Lens,
		torch:     opts.Torch,
		extra:     opts.Capture,
		id:        id,
		exited:    make(chan struct{}),
		events:    make(chan capture.State, eventBuffer),
	}
}

// ID returns the session identifier used in logs and results.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns the mounted screen state.
func (c *Controller) Snapshot() (capture.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.screen == nil {
		return capture.State{}, false
	}
	return c.screen.Snapshot(), true
}

// Run mounts the capture screen and blocks until the user exits or ctx ends.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{SessionID: c.id, StartedAt: time.Now()}

	ready := make(chan struct{})
	var readyOnce sync.Once
	cam, err := c.open(c.lens, func() {
		readyOnce.Do(func() { close(ready) })
	})
	if err != nil {
		c.logger.Error("camera open failed", "lens", c.lens, "error", err.Error())
		c.indicator.ShowError(context.Background(), "Camera unavailable")
		result.Err = fmt.Errorf("open camera: %w", err)
		result.FinishedAt = time.Now()
		return result
	}

	opts := append([]capture.Option{
		capture.WithInitial(c.lens, c.torch),
		capture.WithListener(c.enqueue),
	}, c.extra...)
	screen := capture.NewController(c.logger, cam, capture.NavigatorFunc(c.goBack), c.recog, opts...)

	c.mu.Lock()
	c.screen = screen
	c.mu.Unlock()
	c.logger.Info("capture screen mounted", "lens", c.lens, "torch", c.torch)

	done := make(chan struct{})
	go func() {
		select {
		case <-ready:
			screen.MarkReady()
		case <-done:
		}
	}()

	observed := make(chan observation, 1)
	go func() {
		observed <- c.observe(done)
	}()

	select {
	case <-ctx.Done():
		result.Err = ctx.Err()
	case <-c.exited:
		result.Exited = true
	}

	screen.Close()
	close(done)
	stats := <-observed

	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if result.Exited {
		c.indicator.CueExit(cleanupCtx)
	}
	c.indicator.Hide(cleanupCtx)

	result.Captures = stats.captures
	result.Recognized = stats.recognized
	result.Failures = stats.failures
	result.LastResult = stats.lastResult
	result.Final = screen.Snapshot()
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	c.mu.RLock()
	screen := c.screen
	c.mu.RUnlock()
	if screen == nil {
		return ipc.Failure(ErrNotMounted)
	}

	var accepted bool
	switch req.Command {
	case ipc.CommandStatus:
		return respond(screen.Snapshot(), "status")
	case ipc.CommandFlip:
		accepted = screen.ToggleLens()
	case ipc.CommandFlash:
		accepted = screen.ToggleFlash()
	case ipc.CommandCapture:
		accepted = screen.Capture()
	case ipc.CommandReset:
		accepted = screen.Reset()
	case ipc.CommandExit:
		accepted = screen.Exit()
	default:
		resp := respond(screen.Snapshot(), "")
		resp.OK = false
		resp.Error = fmt.Errorf("%w: %s", ipc.ErrUnknownCommand, req.Command).Error()
		return resp
	}

	message := "ignored"
	if accepted {
		message = "accepted"
	}
	c.logger.Debug("intent handled", "command", req.Command, "accepted", accepted)
	return respond(screen.Snapshot(), message)
}

func respond(state capture.State, message string) ipc.Response {
	return ipc.Response{OK: true, State: string(state.Workflow), Message: message, Snapshot: &state}
}

// goBack is the screen navigator: it runs the host navigation once and ends Run.
// The exit cue plays in Run so it is bounded by the cleanup deadline.
func (c *Controller) goBack() {
	c.exitOnce.Do(func() {
		c.navigator.GoBack()
		close(c.exited)
	})
}

func (c *Controller) enqueue(state capture.State) {
	select {
	case c.events <- state:
	default:
		c.logger.Warn("snapshot dropped", "version", state.Version, "workflow", state.Workflow)
	}
}

type observation struct {
	captures   int
	recognized int
	failures   int
	lastResult *capture.Result
}

// observe applies snapshots in version order until done, then drains the queue.
func (c *Controller) observe(done <-chan struct{}) observation {
	var (
		stats    observation
		version  uint64
		workflow = fsm.StateIdle
	)

	apply := func(state capture.State) {
		if state.Version <= version {
			return
		}
		version = state.Version
		previous := workflow
		workflow = state.Workflow
		if previous == workflow {
			return
		}
		c.onWorkflow(previous, state, &stats)
	}

	for {
		select {
		case state := <-c.events:
			apply(state)
		case <-done:
			for {
				select {
				case state := <-c.events:
					apply(state)
				default:
					return stats
				}
			}
		}
	}
}

func (c *Controller) onWorkflow(previous fsm.State, state capture.State, stats *observation) {
	ctx := context.Background()

	switch state.Workflow {
	case fsm.StateCapturing:
		stats.captures++
		c.indicator.CueShutter(ctx)
		c.indicator.ShowCapturing(ctx)
	case fsm.StateRecognized:
		c.indicator.ShowRecognized(ctx)
	case fsm.StateResult:
		if state.Result == nil {
			return
		}
		stats.recognized++
		card := *state.Result
		stats.lastResult = &card
		c.indicator.CueResult(ctx)
		c.indicator.ShowResult(ctx, card)
		if err := c.results.Publish(ctx, card); err != nil {
			c.logger.Error("result publish failed", "capture_id", state.CaptureID, "error", err.Error())
		}
	case fsm.StateIdle:
		if previous.InFlight() && state.LastError != "" {
			stats.failures++
			c.indicator.ShowError(ctx, "Card not recognized")
			return
		}
		c.indicator.Hide(ctx)
	}
}
