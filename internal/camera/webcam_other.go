//go:build !linux

package camera

import (
	"errors"

	"github.com/rbright/cardscan/internal/capture"
)

func openWebcam(Options) (capture.Camera, error) {
	return nil, errors.New("webcam backend requires linux (V4L2)")
}

// Probe is unavailable without V4L2.
func Probe(string) ([]string, error) {
	return nil, errors.New("camera probe requires linux (V4L2)")
}
