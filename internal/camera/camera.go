// Package camera opens the camera backend that feeds a capture session.
package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/config"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown camera backend")

// Options configures Open.
type Options struct {
	Config config.CameraConfig
	// Lens is the lens the session mounts with.
	Lens   capture.LensFacing
	Clock  clockwork.Clock
	Logger *slog.Logger
	// OnReady is called at most once, from a backend goroutine, when the
	// preview is delivering frames.
	OnReady func()
}

// Open starts the configured backend. The returned camera must be released.
func Open(opts Options) (capture.Camera, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.OnReady == nil {
		opts.OnReady = func() {}
	}
	if opts.Lens == "" {
		opts.Lens = capture.LensBack
	}

	switch opts.Config.Backend {
	case config.BackendSim:
		warmup := time.Duration(opts.Config.WarmupMS) * time.Millisecond
		return NewSim(opts.Clock, warmup, opts.Logger, opts.OnReady), nil
	case config.BackendWebcam:
		return openWebcam(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Config.Backend)
	}
}
