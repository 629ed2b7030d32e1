package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridci/gridci/internal/trigger"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	// Arrange
	out := &bytes.Buffer{}

	// Act
	cfg, shouldExit, err := Parse([]string{"pipelines/"}, out)

	// Assert
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "pipelines/", cfg.PipelinePath)
	require.Equal(t, ".", cfg.WorkDir)
	require.Equal(t, ".gridci-cache", cfg.CacheDir)
	require.Equal(t, trigger.KindManual, cfg.Event.Kind)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Zero(t, cfg.HealthcheckPort)
	require.False(t, cfg.ForceFailFast)
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	args := []string{
		"--pipeline", "ci.hcl",
		"--event", "push",
		"--branch", "master",
		"--os", "macos",
		"--workdir", "/srv/checkout",
		"--workers", "8",
		"--fail-fast",
		"--log-format", "text",
		"--log-level", "debug",
		"--healthcheck-port", "8080",
	}

	cfg, shouldExit, err := Parse(args, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "ci.hcl", cfg.PipelinePath)
	require.Equal(t, trigger.KindPush, cfg.Event.Kind)
	require.Equal(t, "master", cfg.Event.Branch)
	require.Equal(t, "macos", cfg.OS)
	require.Equal(t, "/srv/checkout", cfg.WorkDir)
	require.Equal(t, 8, cfg.WorkerCount)
	require.True(t, cfg.ForceFailFast)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 8080, cfg.HealthcheckPort)
}

func TestParse_PositionalPath(t *testing.T) {
	t.Parallel()

	cfg, shouldExit, err := Parse([]string{"--event", "manual", "ci.yml"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "ci.yml", cfg.PipelinePath)
}

func TestParse_NoPathShowsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse(nil, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "bad event kind",
			args:    []string{"--event", "cron", "ci.hcl"},
			wantErr: "unknown event kind",
		},
		{
			name:    "bad log format",
			args:    []string{"--log-format", "xml", "ci.hcl"},
			wantErr: "invalid log-format",
		},
		{
			name:    "bad log level",
			args:    []string{"--log-level", "verbose", "ci.hcl"},
			wantErr: "invalid log-level",
		},
		{
			name:    "zero workers",
			args:    []string{"--workers", "0", "ci.hcl"},
			wantErr: "WorkerCount must be at least 1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			require.Equal(t, 2, exitErr.Code)
			require.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

// TestParse_EventCaseInsensitive verifies the event kind is normalized
// before validation.
func TestParse_EventCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"--event", "PUSH", "--branch", "develop", "ci.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.Equal(t, trigger.KindPush, cfg.Event.Kind)
}
