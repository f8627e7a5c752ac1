// Package hooks runs user-configured commands on session events.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/config"
)

const (
	resultTimeout = 5 * time.Second
	exitTimeout   = 2 * time.Second
)

// resultPayload is the JSON document written to the result hook's stdin.
type resultPayload struct {
	Event     string         `json:"event"`
	SessionID string         `json:"session_id,omitempty"`
	Card      capture.Result `json:"card"`
	Price     string         `json:"price"`
	At        time.Time      `json:"at"`
}

// Runner dispatches configured hook commands.
type Runner struct {
	hooks     config.HooksConfig
	logger    *slog.Logger
	sessionID string
	now       func() time.Time
}

// NewRunner constructs a hook runner from runtime config.
func NewRunner(cfg config.HooksConfig, sessionID string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{hooks: cfg, logger: logger, sessionID: sessionID, now: time.Now}
}

// Publish pipes the recognized card as JSON to hooks.result_cmd.
func (r *Runner) Publish(ctx context.Context, result capture.Result) error {
	argv := r.hooks.Result.Argv
	if len(argv) == 0 {
		return nil
	}

	payload, err := json.Marshal(resultPayload{
		Event:     "result",
		SessionID: r.sessionID,
		Card:      result,
		Price:     result.Price(),
		At:        r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode result payload: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, resultTimeout)
	defer cancel()
	env := []string{
		"CARDSCAN_EVENT=result",
		"CARDSCAN_CARD_ID=" + result.ID,
		"CARDSCAN_CARD_NAME=" + result.DisplayName,
	}
	if err := runCommandWithInput(runCtx, argv, env, string(payload)+"\n"); err != nil {
		return fmt.Errorf("result hook: %w", err)
	}
	r.logger.Debug("result hook ran", "card_id", result.ID)
	return nil
}

// GoBack runs hooks.exit_cmd. Failures are logged; navigation is best effort.
func (r *Runner) GoBack() {
	argv := r.hooks.Exit.Argv
	if len(argv) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), exitTimeout)
	defer cancel()
	if err := runCommandWithInput(ctx, argv, []string{"CARDSCAN_EVENT=exit"}, ""); err != nil {
		r.logger.Error("exit hook failed", "error", err.Error())
	}
}

// runCommandWithInput executes argv with extra env and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, env []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
