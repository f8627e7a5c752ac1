package camera

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rbright/cardscan/internal/capture"
)

// Sim is a camera without hardware. It reports readiness after a warmup and
// records every configuration it receives.
type Sim struct {
	logger *slog.Logger

	mu       sync.Mutex
	timer    clockwork.Timer
	ready    bool
	released bool
	configs  []capture.CameraConfig
}

// NewSim starts the warmup timer on clock.
func NewSim(clock clockwork.Clock, warmup time.Duration, logger *slog.Logger, onReady func()) *Sim {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Sim{logger: logger}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = clock.AfterFunc(warmup, func() {
		s.mu.Lock()
		if s.released {
			s.mu.Unlock()
			return
		}
		s.ready = true
		s.timer = nil
		s.mu.Unlock()

		s.logger.Debug("sim camera warmed up", "warmup", warmup)
		onReady()
	})
	return s
}

func (s *Sim) Configure(cfg capture.CameraConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.configs = append(s.configs, cfg)
}

func (s *Sim) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Configs returns the configurations received so far.
func (s *Sim) Configs() []capture.CameraConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capture.CameraConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

// Ready reports whether the warmup completed.
func (s *Sim) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Released reports whether Release was called.
func (s *Sim) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
