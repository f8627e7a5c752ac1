package config

import (
	"strings"
)

// Parse reads configuration content as JSONC or YAML.
//
// JSONC is selected when the first non-whitespace character is `{`.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	var (
		payload fileConfig
		err     error
	)
	if strings.HasPrefix(trimmed, "{") {
		payload, err = decodeJSONC(content)
	} else {
		payload, err = decodeYAML(content)
	}
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

// fileConfig mirrors the on-disk layout. Nil fields keep the base value.
type fileConfig struct {
	Camera    *fileCamera    `json:"camera" yaml:"camera"`
	Timing    *fileTiming    `json:"timing" yaml:"timing"`
	Indicator *fileIndicator `json:"indicator" yaml:"indicator"`
	Hooks     *fileHooks     `json:"hooks" yaml:"hooks"`
}

type fileCamera struct {
	Backend     *string `json:"backend" yaml:"backend"`
	BackDevice  *string `json:"back_device" yaml:"back_device"`
	FrontDevice *string `json:"front_device" yaml:"front_device"`
	TorchLED    *string `json:"torch_led" yaml:"torch_led"`
	WarmupMS    *int    `json:"warmup_ms" yaml:"warmup_ms"`
	Lens        *string `json:"lens" yaml:"lens"`
	Torch       *bool   `json:"torch" yaml:"torch"`
}

type fileTiming struct {
	DebounceMS       *int `json:"debounce_ms" yaml:"debounce_ms"`
	SettleMS         *int `json:"settle_ms" yaml:"settle_ms"`
	RecognizeMS      *int `json:"recognize_ms" yaml:"recognize_ms"`
	TorchRetriggerMS *int `json:"torch_retrigger_ms" yaml:"torch_retrigger_ms"`
}

type fileIndicator struct {
	Enable           *bool   `json:"enable" yaml:"enable"`
	DesktopAppName   *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable      *bool   `json:"sound_enable" yaml:"sound_enable"`
	SoundShutterFile *string `json:"sound_shutter_file" yaml:"sound_shutter_file"`
	SoundResultFile  *string `json:"sound_result_file" yaml:"sound_result_file"`
	SoundExitFile    *string `json:"sound_exit_file" yaml:"sound_exit_file"`
	ErrorTimeoutMS   *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
}

type fileHooks struct {
	ResultCmd *string `json:"result_cmd" yaml:"result_cmd"`
	ExitCmd   *string `json:"exit_cmd" yaml:"exit_cmd"`
}

func (payload fileConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if c := payload.Camera; c != nil {
		setString(&cfg.Camera.Backend, c.Backend, true)
		setString(&cfg.Camera.BackDevice, c.BackDevice, false)
		setString(&cfg.Camera.FrontDevice, c.FrontDevice, false)
		setString(&cfg.Camera.TorchLED, c.TorchLED, false)
		setString(&cfg.Camera.Lens, c.Lens, true)
		if c.WarmupMS != nil {
			cfg.Camera.WarmupMS = *c.WarmupMS
		}
		if c.Torch != nil {
			cfg.Camera.Torch = *c.Torch
		}
	}

	if t := payload.Timing; t != nil {
		for _, field := range []struct {
			dst *int
			src *int
		}{
			{&cfg.Timing.DebounceMS, t.DebounceMS},
			{&cfg.Timing.SettleMS, t.SettleMS},
			{&cfg.Timing.RecognizeMS, t.RecognizeMS},
			{&cfg.Timing.TorchRetriggerMS, t.TorchRetriggerMS},
		} {
			if field.src != nil {
				*field.dst = *field.src
			}
		}
	}

	if i := payload.Indicator; i != nil {
		if i.Enable != nil {
			cfg.Indicator.Enable = *i.Enable
		}
		if i.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *i.SoundEnable
		}
		if i.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *i.ErrorTimeoutMS
		}
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName, false)
		setString(&cfg.Indicator.SoundShutterFile, i.SoundShutterFile, false)
		setString(&cfg.Indicator.SoundResultFile, i.SoundResultFile, false)
		setString(&cfg.Indicator.SoundExitFile, i.SoundExitFile, false)
	}

	if h := payload.Hooks; h != nil {
		if h.ResultCmd != nil {
			command, err := parseCommand("hooks.result_cmd", *h.ResultCmd)
			if err != nil {
				return nil, err
			}
			cfg.Hooks.Result = command
		}
		if h.ExitCmd != nil {
			command, err := parseCommand("hooks.exit_cmd", *h.ExitCmd)
			if err != nil {
				return nil, err
			}
			cfg.Hooks.Exit = command
		}
	}

	return warnings, nil
}

func setString(dst *string, src *string, lower bool) {
	if src == nil {
		return
	}
	value := strings.TrimSpace(*src)
	if lower {
		value = strings.ToLower(value)
	}
	*dst = value
}
