//go:build linux

package camera

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/blackjack/webcam"

	"github.com/rbright/cardscan/internal/capture"
)

// frameTimeoutSeconds bounds each WaitForFrame call so stop requests are observed.
const frameTimeoutSeconds = 1

// Webcam streams from the V4L2 device of the active lens.
type Webcam struct {
	logger  *slog.Logger
	devices map[capture.LensFacing]string
	torch   *TorchLED
	ready   sync.Once
	onReady func()

	mu       sync.Mutex
	lens     capture.LensFacing
	stream   *stream
	torchOn  bool
	released bool
}

type stream struct {
	cam  *webcam.Webcam
	stop chan struct{}
	done chan struct{}
}

func openWebcam(opts Options) (capture.Camera, error) {
	w := &Webcam{
		logger: opts.Logger,
		devices: map[capture.LensFacing]string{
			capture.LensBack:  opts.Config.BackDevice,
			capture.LensFront: opts.Config.FrontDevice,
		},
		onReady: opts.OnReady,
		lens:    opts.Lens,
	}
	if opts.Config.TorchLED != "" {
		w.torch = NewTorchLED(opts.Config.TorchLED)
	}

	s, err := w.start(opts.Lens)
	if err != nil {
		return nil, err
	}
	w.stream = s
	return w, nil
}

// Configure switches the streaming device on a lens change and applies the torch.
func (w *Webcam) Configure(cfg capture.CameraConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return
	}

	// A nil stream means the last open failed; retry even for the same lens.
	if cfg.Lens != w.lens || w.stream == nil {
		w.stopLocked()
		s, err := w.start(cfg.Lens)
		if err != nil {
			w.logger.Error("camera lens switch failed", "lens", cfg.Lens, "error", err.Error())
		} else {
			w.stream = s
			w.lens = cfg.Lens
		}
	}

	if w.torch == nil {
		if cfg.TorchEnabled {
			w.logger.Debug("torch requested without torch_led", "lens", cfg.Lens)
		}
		return
	}
	if err := w.torch.Set(cfg.TorchEnabled); err != nil {
		w.logger.Error("torch write failed", "torch", cfg.TorchEnabled, "error", err.Error())
		return
	}
	w.torchOn = cfg.TorchEnabled
}

// Release stops streaming and turns the torch off.
func (w *Webcam) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return
	}
	w.released = true
	w.stopLocked()
	if w.torch != nil && w.torchOn {
		if err := w.torch.Set(false); err != nil {
			w.logger.Error("torch release failed", "error", err.Error())
		}
	}
}

func (w *Webcam) start(lens capture.LensFacing) (*stream, error) {
	device := w.devices[lens]
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}
	if err := cam.StartStreaming(); err != nil {
		_ = cam.Close()
		return nil, fmt.Errorf("start streaming %s: %w", device, err)
	}

	s := &stream{cam: cam, stop: make(chan struct{}), done: make(chan struct{})}
	go w.read(s, device)
	w.logger.Info("camera streaming", "lens", lens, "device", device)
	return s, nil
}

func (w *Webcam) read(s *stream, device string) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		err := s.cam.WaitForFrame(frameTimeoutSeconds)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			w.logger.Error("camera wait failed", "device", device, "error", err.Error())
			return
		}

		frame, err := s.cam.ReadFrame()
		if err != nil {
			w.logger.Error("camera read failed", "device", device, "error", err.Error())
			return
		}
		if len(frame) > 0 {
			// onReady configures the camera, which may restart this stream.
			w.ready.Do(func() { go w.onReady() })
		}
	}
}

func (w *Webcam) stopLocked() {
	if w.stream == nil {
		return
	}
	close(w.stream.stop)
	<-w.stream.done
	if err := w.stream.cam.StopStreaming(); err != nil {
		w.logger.Debug("camera stop streaming failed", "error", err.Error())
	}
	_ = w.stream.cam.Close()
	w.stream = nil
}

// Probe opens device and reports the pixel formats it offers.
func Probe(device string) ([]string, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}
	defer cam.Close()

	formats := make([]string, 0, 4)
	for _, desc := range cam.GetSupportedFormats() {
		formats = append(formats, desc)
	}
	sort.Strings(formats)
	return formats, nil
}
