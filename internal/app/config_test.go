package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{WorkerCount: 4})
	require.Error(t, err)
	require.Contains(t, err.Error(), "PipelinePath")

	_, err = NewConfig(Config{PipelinePath: "ci.hcl", WorkerCount: 0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "WorkerCount")

	cfg, err := NewConfig(Config{PipelinePath: "ci.hcl", WorkerCount: 4})
	require.NoError(t, err)
	require.Equal(t, "ci.hcl", cfg.PipelinePath)
}

// TestApplyEnvOverrides verifies that set variables win over flag values and
// unset variables leave them alone.
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRIDCI_LOG_LEVEL", "debug")
	t.Setenv("GRIDCI_WORKERS", "16")
	t.Setenv("GRIDCI_CACHE_BACKEND", "local")
	t.Setenv("GRIDCI_S3_ENDPOINT", "minio.internal:9000")
	t.Setenv("GRIDCI_S3_USE_SSL", "true")

	cfg := &Config{
		LogLevel:    "info",
		LogFormat:   "json",
		WorkerCount: 4,
		CacheDir:    ".gridci-cache",
	}

	require.NoError(t, applyEnvOverrides(context.Background(), cfg))

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 16, cfg.WorkerCount)
	require.Equal(t, "local", cfg.CacheBackend)
	require.Equal(t, "minio.internal:9000", cfg.S3Endpoint)
	require.True(t, cfg.S3UseSSL)
	// Untouched by the environment.
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, ".gridci-cache", cfg.CacheDir)
}

func TestApplyEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("GRIDCI_WORKERS", "many")

	cfg := &Config{WorkerCount: 4}

	err := applyEnvOverrides(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading environment overrides")
}
