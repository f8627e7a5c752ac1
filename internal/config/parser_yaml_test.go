package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAMLAppliesOverrides(t *testing.T) {
	cfg, warnings, err := Parse(`
# sim camera with a slow warmup
camera:
  warmup_ms: 1500
  torch: true
timing:
  recognize_ms: 2000
hooks:
  exit_cmd: notify-send "scan closed"
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, BackendSim, cfg.Camera.Backend)
	require.Equal(t, 1500, cfg.Camera.WarmupMS)
	require.True(t, cfg.Camera.Torch)
	require.Equal(t, 2000, cfg.Timing.RecognizeMS)
	require.Equal(t, []string{"notify-send", "scan closed"}, cfg.Hooks.Exit.Argv)
}

func TestParseYAMLCommentOnlyKeepsDefaults(t *testing.T) {
	cfg, _, err := Parse("# nothing configured yet\n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseYAMLRejectsUnknownKey(t *testing.T) {
	_, _, err := Parse("camera:\n  zoom: 2\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "zoom")
}

func TestParseYAMLTypeErrorIncludesLine(t *testing.T) {
	_, _, err := Parse("timing:\n  settle_ms: soon\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParseYAMLRejectsMultipleDocuments(t *testing.T) {
	_, _, err := Parse("timing:\n  settle_ms: 100\n---\ntiming:\n  settle_ms: 200\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}

func TestParseYAMLRunsValidation(t *testing.T) {
	_, _, err := Parse("camera:\n  backend: v4l2\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "camera.backend")
}
