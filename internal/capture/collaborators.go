package capture

import (
	"context"
	"errors"
)

// ErrRecognitionUnavailable indicates no recognizer produced a card.
var ErrRecognitionUnavailable = errors.New("card recognition unavailable")

// Camera is the controller-facing side of a live camera session.
// Configure must not call back into the controller synchronously.
type Camera interface {
	Configure(CameraConfig)
	Release()
}

// Navigator pops the capture screen.
type Navigator interface {
	GoBack()
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) GoBack() {
	f()
}

// Recognizer turns the current frame into a card result.
type Recognizer interface {
	Recognize(context.Context) (Result, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(context.Context) (Result, error)

func (f RecognizerFunc) Recognize(ctx context.Context) (Result, error) {
	return f(ctx)
}

// SimulatedRecognizer always recognizes the same card.
type SimulatedRecognizer struct {
	Card Result
}

// MockCard is the card returned by the default simulated recognizer.
func MockCard() Result {
	return Result{
		ID:          "base1-4",
		DisplayName: "Charizard (Rare)",
		Subtitle:    "Base Set · 4/102",
		PriceMinor:  12050,
		ImageRef:    "https://via.placeholder.com/215x300",
	}
}

func (s SimulatedRecognizer) Recognize(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.Card == (Result{}) {
		return MockCard(), nil
	}
	return s.Card, nil
}

// noopCamera keeps the controller usable before a camera is wired.
type noopCamera struct{}

func (noopCamera) Configure(CameraConfig) {}
func (noopCamera) Release()               {}

type noopNavigator struct{}

func (noopNavigator) GoBack() {}
