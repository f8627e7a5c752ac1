package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Backend:     BackendSim,
			BackDevice:  "/dev/video0",
			FrontDevice: "/dev/video1",
			WarmupMS:    600,
			Lens:        "back",
		},
		Timing: TimingConfig{
			DebounceMS:       500,
			SettleMS:         250,
			RecognizeMS:      1000,
			TorchRetriggerMS: 300,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "cardscan",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
	}
}
