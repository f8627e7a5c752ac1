// Package config resolves, parses, validates, and defaults cardscan configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by cardscan.
type Config struct {
	Camera    CameraConfig
	Timing    TimingConfig
	Indicator IndicatorConfig
	Hooks     HooksConfig
}

// Supported camera backends.
const (
	BackendSim    = "sim"
	BackendWebcam = "webcam"
)

// CameraConfig selects the camera backend and its devices.
type CameraConfig struct {
	Backend     string
	BackDevice  string
	FrontDevice string
	TorchLED    string
	WarmupMS    int
	Lens        string
	Torch       bool
}

// TimingConfig holds the controller delays in milliseconds.
type TimingConfig struct {
	DebounceMS       int
	SettleMS         int
	RecognizeMS      int
	TorchRetriggerMS int
}

// Debounce is the shared intent gate window.
func (t TimingConfig) Debounce() time.Duration { return ms(t.DebounceMS) }

// Settle is the delay between capturing and recognized.
func (t TimingConfig) Settle() time.Duration { return ms(t.SettleMS) }

// Recognize is the delay between recognized and result.
func (t TimingConfig) Recognize() time.Duration { return ms(t.RecognizeMS) }

// TorchRetrigger is the gap between the forced torch-off and torch-on writes.
func (t TimingConfig) TorchRetrigger() time.Duration { return ms(t.TorchRetriggerMS) }

// IndicatorConfig controls desktop notifications and audio cue behavior.
type IndicatorConfig struct {
	Enable           bool
	DesktopAppName   string
	SoundEnable      bool
	SoundShutterFile string
	SoundResultFile  string
	SoundExitFile    string
	ErrorTimeoutMS   int
}

// HooksConfig holds external commands run on session events.
type HooksConfig struct {
	Result CommandConfig
	Exit   CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
