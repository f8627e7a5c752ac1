package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/cardscan/internal/audio"
	"github.com/rbright/cardscan/internal/camera"
	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/cli"
	"github.com/rbright/cardscan/internal/config"
	"github.com/rbright/cardscan/internal/doctor"
	"github.com/rbright/cardscan/internal/hooks"
	"github.com/rbright/cardscan/internal/indicator"
	"github.com/rbright/cardscan/internal/ipc"
	"github.com/rbright/cardscan/internal/logging"
	"github.com/rbright/cardscan/internal/session"
	"github.com/rbright/cardscan/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("cardscan"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("cardscan"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch {
	case parsed.Command == cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case parsed.Command == cli.CommandDevices:
		return r.commandDevices(ctx, cfgLoaded.Config)
	case parsed.Command == cli.CommandStatus:
		return r.commandStatus(ctx)
	case parsed.Command.Intent():
		return r.forwardOrFail(ctx, ipc.Command(parsed.Command))
	case parsed.Command == cli.CommandScan:
		return r.commandScan(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context, cfg config.Config) int {
	fmt.Fprintf(r.Stdout, "camera backend=%s\n", cfg.Camera.Backend)
	fmt.Fprintf(r.Stdout, "  back  device=%s\n", cfg.Camera.BackDevice)
	fmt.Fprintf(r.Stdout, "  front device=%s\n", cfg.Camera.FrontDevice)
	if cfg.Camera.TorchLED != "" {
		fmt.Fprintf(r.Stdout, "  torch led=%s\n", cfg.Camera.TorchLED)
	}

	sinks, err := audio.ListSinks(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(sinks) == 0 {
		fmt.Fprintln(r.Stdout, "no audio sinks found")
		return 1
	}

	for _, sink := range sinks {
		defaultMark := " "
		if sink.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !sink.Available {
			availability = "no"
		}
		muted := "no"
		if sink.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			sink.ID,
			sink.Description,
			sink.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, describe(resp))
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command ipc.Command) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active cardscan session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandScan(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	lens, err := capture.ParseLens(cfg.Camera.Lens)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	sessionID := uuid.NewString()
	hookRunner := hooks.NewRunner(cfg.Hooks, sessionID, logger)
	controller := session.NewController(session.Options{
		ID:     sessionID,
		Logger: logger,
		OpenCamera: func(lens capture.LensFacing, onReady func()) (capture.Camera, error) {
			return camera.Open(camera.Options{
				Config:  cfg.Camera,
				Lens:    lens,
				Logger:  logger,
				OnReady: onReady,
			})
		},
		Indicator: indicator.New(cfg.Indicator, logger),
		Results:   hookRunner,
		Navigator: hookRunner,
		Lens:      lens,
		Torch:     capture.TorchFromBool(cfg.Camera.Torch),
		Capture: []capture.Option{capture.WithTiming(capture.Timing{
			Debounce:       cfg.Timing.Debounce(),
			Settle:         cfg.Timing.Settle(),
			Recognize:      cfg.Timing.Recognize(),
			TorchRetrigger: cfg.Timing.TorchRetrigger(),
		})},
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)

	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	if result.LastResult != nil {
		fmt.Fprintln(r.Stdout, formatCard(*result.LastResult))
	}
	return 0
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"session_id", result.SessionID,
		"exited", result.Exited,
		"workflow", result.Final.Workflow,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"captures", result.Captures,
		"recognized", result.Recognized,
		"failures", result.Failures,
	}
	if result.LastResult != nil {
		fields = append(fields, "last_card_id", result.LastResult.ID)
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

// describe renders a status response as one line.
func describe(resp ipc.Response) string {
	state := resp.State
	if state == "" {
		state = "idle"
	}
	snap := resp.Snapshot
	if snap == nil {
		return state
	}

	parts := []string{
		state,
		"lens=" + string(snap.Lens),
		"torch=" + string(snap.Torch),
		fmt.Sprintf("ready=%t", snap.CameraReady),
	}
	if snap.Result != nil {
		parts = append(parts, formatCard(*snap.Result))
	}
	if snap.LastError != "" {
		parts = append(parts, fmt.Sprintf("error=%q", snap.LastError))
	}
	return strings.Join(parts, " ")
}

func formatCard(card capture.Result) string {
	return fmt.Sprintf("%s · %s · $%s", card.DisplayName, card.Subtitle, card.Price())
}

func tryForward(ctx context.Context, socketPath string, command ipc.Command) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, command, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
