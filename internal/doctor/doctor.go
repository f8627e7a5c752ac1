// Package doctor runs runtime readiness diagnostics for config, camera, torch, and audio.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/cardscan/internal/audio"
	"github.com/rbright/cardscan/internal/camera"
	"github.com/rbright/cardscan/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// probeCamera is swapped in tests.
var probeCamera = camera.Probe

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir set", "XDG_RUNTIME_DIR is empty"))

	cam := cfg.Config.Camera
	if cam.Backend == config.BackendWebcam {
		checks = append(checks, checkCamera("camera.back", cam.BackDevice))
		if cam.FrontDevice != cam.BackDevice {
			checks = append(checks, checkCamera("camera.front", cam.FrontDevice))
		}
		if cam.TorchLED != "" {
			checks = append(checks, checkTorchLED(cam.TorchLED))
		}
	} else {
		checks = append(checks, Check{Name: "camera", Pass: true, Message: fmt.Sprintf("%s backend", cam.Backend)})
	}

	if len(cfg.Config.Hooks.Result.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Hooks.Result.Argv, "hooks.result_cmd"))
	}
	if len(cfg.Config.Hooks.Exit.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Hooks.Exit.Argv, "hooks.exit_cmd"))
	}

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}
	if cfg.Config.Indicator.SoundEnable {
		checks = append(checks, checkAudioSink())
	}

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkCamera opens a V4L2 device and lists its formats.
func checkCamera(name string, device string) Check {
	if strings.TrimSpace(device) == "" {
		return Check{Name: name, Pass: false, Message: "device is empty"}
	}
	formats, err := probeCamera(device)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if len(formats) == 0 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s reports no capture formats", device)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s (%s)", device, strings.Join(formats, ", "))}
}

// checkTorchLED verifies the brightness file exists and is writable.
func checkTorchLED(path string) Check {
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: "camera.torch_led", Pass: false, Message: err.Error()}
	}
	if info.IsDir() {
		return Check{Name: "camera.torch_led", Pass: false, Message: fmt.Sprintf("%s is a directory", path)}
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return Check{Name: "camera.torch_led", Pass: false, Message: fmt.Sprintf("not writable: %v", err)}
	}
	_ = f.Close()
	return Check{Name: "camera.torch_led", Pass: true, Message: fmt.Sprintf("writable (%s)", filepath.Base(filepath.Dir(path)))}
}

// checkAudioSink confirms the audio server answers and has a default sink for cues.
func checkAudioSink() Check {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sink, err := audio.DefaultSink(ctx)
	if err != nil {
		return Check{Name: "audio.sink", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("default %q", sink.ID)
	if !sink.Available {
		message += " (unavailable)"
	}
	if sink.Muted {
		message += " (muted)"
	}
	return Check{Name: "audio.sink", Pass: true, Message: message}
}
