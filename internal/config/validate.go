package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch cfg.Camera.Backend {
	case BackendSim:
		if strings.TrimSpace(cfg.Camera.TorchLED) != "" {
			warnings = append(warnings, Warning{Message: "camera.torch_led is ignored by the sim backend"})
		}
	case BackendWebcam:
		if strings.TrimSpace(cfg.Camera.BackDevice) == "" {
			return nil, fmt.Errorf("camera.back_device must not be empty when camera.backend=webcam")
		}
		if strings.TrimSpace(cfg.Camera.FrontDevice) == "" {
			return nil, fmt.Errorf("camera.front_device must not be empty when camera.backend=webcam")
		}
		if cfg.Camera.BackDevice == cfg.Camera.FrontDevice {
			warnings = append(warnings, Warning{Message: "camera.back_device and camera.front_device are the same device; lens flips reopen it"})
		}
	case "":
		return nil, fmt.Errorf("camera.backend must not be empty")
	default:
		return nil, fmt.Errorf("camera.backend must be one of: sim, webcam")
	}

	if cfg.Camera.Lens != "back" && cfg.Camera.Lens != "front" {
		return nil, fmt.Errorf("camera.lens must be one of: back, front")
	}
	if cfg.Camera.WarmupMS < 0 {
		return nil, fmt.Errorf("camera.warmup_ms must be >= 0")
	}

	for _, field := range []struct {
		key   string
		value int
	}{
		{"timing.debounce_ms", cfg.Timing.DebounceMS},
		{"timing.settle_ms", cfg.Timing.SettleMS},
		{"timing.recognize_ms", cfg.Timing.RecognizeMS},
		{"timing.torch_retrigger_ms", cfg.Timing.TorchRetriggerMS},
	} {
		if field.value <= 0 {
			return nil, fmt.Errorf("%s must be > 0", field.key)
		}
	}
	if cfg.Timing.DebounceMS < 100 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("timing.debounce_ms=%d lets double taps through", cfg.Timing.DebounceMS)})
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Hooks.Result.Raw) != "" && len(cfg.Hooks.Result.Argv) == 0 {
		return nil, fmt.Errorf("hooks.result_cmd is configured but empty")
	}
	if strings.TrimSpace(cfg.Hooks.Exit.Raw) != "" && len(cfg.Hooks.Exit.Argv) == 0 {
		return nil, fmt.Errorf("hooks.exit_cmd is configured but empty")
	}

	return warnings, nil
}
