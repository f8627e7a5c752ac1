package camera

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/config"
)

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Default().Camera
	cfg.Backend = "gstreamer"

	_, err := Open(Options{Config: cfg})
	require.ErrorIs(t, err, ErrUnknownBackend)
	require.Contains(t, err.Error(), "gstreamer")
}

func TestOpenSimBecomesReadyAfterWarmup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var readyCalls atomic.Int32

	cam, err := Open(Options{
		Config:  config.Default().Camera,
		Clock:   clock,
		OnReady: func() { readyCalls.Add(1) },
	})
	require.NoError(t, err)
	sim, ok := cam.(*Sim)
	require.True(t, ok)
	defer sim.Release()

	clock.Advance(599 * time.Millisecond)
	require.Never(t, func() bool { return readyCalls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	require.False(t, sim.Ready())

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return readyCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, sim.Ready())
}

func TestSimReleaseBeforeWarmupSuppressesReady(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var readyCalls atomic.Int32
	sim := NewSim(clock, 100*time.Millisecond, nil, func() { readyCalls.Add(1) })

	sim.Release()
	sim.Release()
	clock.Advance(time.Second)

	require.Never(t, func() bool { return readyCalls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	require.True(t, sim.Released())
}

func TestSimRecordsConfigsUntilReleased(t *testing.T) {
	sim := NewSim(clockwork.NewFakeClock(), time.Second, nil, func() {})

	sim.Configure(capture.CameraConfig{Lens: capture.LensBack})
	sim.Configure(capture.CameraConfig{Lens: capture.LensBack, TorchEnabled: true})
	sim.Release()
	sim.Configure(capture.CameraConfig{Lens: capture.LensFront})

	require.Equal(t, []capture.CameraConfig{
		{Lens: capture.LensBack},
		{Lens: capture.LensBack, TorchEnabled: true},
	}, sim.Configs())
}

func TestSimDrivesControllerReadiness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ctrl *capture.Controller
	sim := NewSim(clock, 600*time.Millisecond, nil, func() { ctrl.MarkReady() })
	ctrl = capture.NewController(nil, sim, nil, nil, capture.WithClock(clock), capture.WithInitial(capture.LensBack, capture.TorchOn))
	defer ctrl.Close()

	clock.Advance(600 * time.Millisecond)
	require.Eventually(t, func() bool { return ctrl.Snapshot().CameraReady }, time.Second, 5*time.Millisecond)

	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return len(sim.Configs()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []capture.CameraConfig{
		{Lens: capture.LensBack, TorchEnabled: false},
		{Lens: capture.LensBack, TorchEnabled: true},
	}, sim.Configs())
}

func TestTorchLEDUsesMaxBrightness(t *testing.T) {
	dir := t.TempDir()
	brightness := filepath.Join(dir, "brightness")
	require.NoError(t, os.WriteFile(brightness, []byte("0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte("255\n"), 0o644))

	torch := NewTorchLED(brightness)
	require.NoError(t, torch.Set(true))
	contents, err := os.ReadFile(brightness)
	require.NoError(t, err)
	require.Equal(t, "255\n", string(contents))

	require.NoError(t, torch.Set(false))
	contents, err = os.ReadFile(brightness)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(contents))
}

func TestTorchLEDDefaultsToOne(t *testing.T) {
	brightness := filepath.Join(t.TempDir(), "brightness")

	torch := NewTorchLED(brightness)
	require.NoError(t, torch.Set(true))
	contents, err := os.ReadFile(brightness)
	require.NoError(t, err)
	require.Equal(t, "1\n", string(contents))
}

func TestTorchLEDWriteError(t *testing.T) {
	torch := NewTorchLED(filepath.Join(t.TempDir(), "missing", "brightness"))
	err := torch.Set(true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "write torch brightness")
}
