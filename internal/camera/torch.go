package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TorchLED drives a sysfs LED through its brightness file.
type TorchLED struct {
	path string
	on   string
}

// NewTorchLED reads max_brightness next to path to pick the on value.
func NewTorchLED(path string) *TorchLED {
	on := "1"
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(path), "max_brightness"))
	if err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(raw))); convErr == nil && v > 0 {
			on = strconv.Itoa(v)
		}
	}
	return &TorchLED{path: path, on: on}
}

// Set writes the on or off brightness.
func (t *TorchLED) Set(enabled bool) error {
	value := "0"
	if enabled {
		value = t.on
	}
	if err := os.WriteFile(t.path, []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("write torch brightness %s: %w", t.path, err)
	}
	return nil
}
