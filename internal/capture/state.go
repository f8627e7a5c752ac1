package capture

import (
	"fmt"
	"strings"

	"github.com/rbright/cardscan/internal/fsm"
)

// LensFacing selects which physical camera feeds the preview.
type LensFacing string

const (
	LensBack  LensFacing = "back"
	LensFront LensFacing = "front"
)

// Flip returns the opposite lens.
func (l LensFacing) Flip() LensFacing {
	if l == LensFront {
		return LensBack
	}
	return LensFront
}

// ParseLens accepts "back" or "front" in any case.
func ParseLens(raw string) (LensFacing, error) {
	switch LensFacing(strings.ToLower(strings.TrimSpace(raw))) {
	case LensBack:
		return LensBack, nil
	case LensFront:
		return LensFront, nil
	default:
		return "", fmt.Errorf("unknown lens %q (want back or front)", raw)
	}
}

// Torch is the desired illumination state.
type Torch string

const (
	TorchOff Torch = "off"
	TorchOn  Torch = "on"
)

// TorchFromBool maps an enabled flag to a Torch value.
func TorchFromBool(on bool) Torch {
	if on {
		return TorchOn
	}
	return TorchOff
}

// Result is the recognized card surfaced once the workflow reaches result.
type Result struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Subtitle    string `json:"subtitle"`
	PriceMinor  int64  `json:"price_minor"`
	ImageRef    string `json:"image_ref"`
}

// Price renders PriceMinor as a decimal amount with two fraction digits.
func (r Result) Price() string {
	sign := ""
	minor := r.PriceMinor
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// State is a read-only snapshot of controller state.
type State struct {
	Lens        LensFacing `json:"lens"`
	Torch       Torch      `json:"torch"`
	CameraReady bool       `json:"camera_ready"`
	Workflow    fsm.State  `json:"workflow"`
	Result      *Result    `json:"result,omitempty"`
	CaptureID   string     `json:"capture_id,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Closed      bool       `json:"closed"`
	Version     uint64     `json:"version"`
}

// CameraConfig is the configuration pushed to the camera session.
type CameraConfig struct {
	Lens         LensFacing
	TorchEnabled bool
}
