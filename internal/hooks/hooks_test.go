package hooks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/cardscan/internal/capture"
	"github.com/rbright/cardscan/internal/config"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, nil, "hello from cardscan")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from cardscan", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestRunCommandWithInputPassesEnv(t *testing.T) {
	scriptPath := writeEnvCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "env.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, []string{"CARDSCAN_EVENT=probe"}, "")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "probe\n", string(data))
}

func TestPublishWritesResultPayload(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "result.json")

	cfg := config.Default().Hooks
	cfg.Result = config.CommandConfig{Argv: []string{scriptPath, outputPath}}

	runner := NewRunner(cfg, "session-1", nil)
	runner.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	card := capture.MockCard()
	require.NoError(t, runner.Publish(context.Background(), card))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"))

	var payload resultPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, "result", payload.Event)
	require.Equal(t, "session-1", payload.SessionID)
	require.Equal(t, card, payload.Card)
	require.Equal(t, card.Price(), payload.Price)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), payload.At)
}

func TestPublishWithoutCommandIsNoop(t *testing.T) {
	runner := NewRunner(config.HooksConfig{}, "", nil)
	require.NoError(t, runner.Publish(context.Background(), capture.MockCard()))
}

func TestPublishReturnsErrorWhenCommandFails(t *testing.T) {
	failScript := writeFailScript(t, "sink offline")

	cfg := config.HooksConfig{Result: config.CommandConfig{Argv: []string{failScript}}}
	runner := NewRunner(cfg, "", nil)

	err := runner.Publish(context.Background(), capture.MockCard())
	require.Error(t, err)
	require.Contains(t, err.Error(), "result hook")
}

func TestGoBackRunsExitCommand(t *testing.T) {
	scriptPath := writeEnvCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "exit.txt")

	cfg := config.HooksConfig{Exit: config.CommandConfig{Argv: []string{scriptPath, outputPath}}}
	NewRunner(cfg, "", nil).GoBack()

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "exit\n", string(data))
}

func TestGoBackFailureDoesNotPanic(t *testing.T) {
	failScript := writeFailScript(t, "no previous screen")

	cfg := config.HooksConfig{Exit: config.CommandConfig{Argv: []string{failScript}}}
	require.NotPanics(t, func() {
		NewRunner(cfg, "", nil).GoBack()
	})
}

func TestRunnerSatisfiesNavigator(t *testing.T) {
	var _ capture.Navigator = NewRunner(config.HooksConfig{}, "", nil)
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\ncat > \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeEnvCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-env.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho \"${CARDSCAN_EVENT:-}\" > \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
