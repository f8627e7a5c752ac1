// Package indicator handles visual state notifications and audio cue playback.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/config"
)

const (
	persistentTimeoutMS = 300000
	resultTimeoutMS     = 8000
	defaultErrorMS      = 1200
)

// Notifier is the concrete indicator used by runtime sessions. It shows
// freedesktop notifications over DBus and plays short audio cues.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu             sync.Mutex
	notificationID uint32
	soundMu        sync.Mutex
}

// New creates an indicator from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowCapturing signals that a capture is in flight.
func (n *Notifier) ShowCapturing(ctx context.Context) {
	n.show(ctx, n.messages.capturing, "", persistentTimeoutMS)
}

// ShowRecognized signals that the card was found in frame.
func (n *Notifier) ShowRecognized(ctx context.Context) {
	n.show(ctx, n.messages.recognized, "", persistentTimeoutMS)
}

// ShowResult displays the recognized card with its price.
func (n *Notifier) ShowResult(ctx context.Context, result capture.Result) {
	summary := fmt.Sprintf("%s · $%s", result.DisplayName, result.Price())
	n.show(ctx, summary, result.Subtitle, resultTimeoutMS)
}

// ShowError displays an error-state indicator message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrorMS
	}
	n.show(ctx, text, "", timeout)
}

// CueShutter emits the capture cue.
func (n *Notifier) CueShutter(context.Context) {
	n.playCue(cueShutter)
}

// CueResult emits the recognized-card cue.
func (n *Notifier) CueResult(context.Context) {
	n.playCue(cueResult)
}

// CueExit plays the screen-exit cue and returns once it finished or ctx ends.
// The process usually exits right after, so this one is not fire-and-forget.
func (n *Notifier) CueExit(ctx context.Context) {
	if !n.cfg.SoundEnable {
		return
	}
	n.soundMu.Lock()
	defer n.soundMu.Unlock()
	if err := emitCue(ctx, cueExit, n.cfg); err != nil {
		n.log("indicator audio cue failed", err)
	}
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

func (n *Notifier) show(ctx context.Context, summary string, body string, timeoutMS int) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, summary, body, timeoutMS)
	})
}

// notify sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notify(ctx context.Context, summary string, body string, timeoutMS int) error {
	n.mu.Lock()
	replaceID := n.notificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "cardscan"
	}

	id, err := desktopNotify(ctx, appName, replaceID, summary, body, timeoutMS)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.notificationID = id
	n.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (n *Notifier) dismiss(ctx context.Context) error {
	n.mu.Lock()
	id := n.notificationID
	n.notificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind, n.cfg); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
