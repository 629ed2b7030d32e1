package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"github.com/gridci/gridci/internal/trigger"
)

// Config holds all the necessary configuration for an App instance to run.
// It is assembled from CLI flags by internal/cli and then adjusted by
// environment overrides in NewApp.
type Config struct {
	// PipelinePath points at a manifest file or a directory of manifests.
	PipelinePath string

	// WorkDir is the checked-out project tree the jobs operate on.
	WorkDir string

	// Event is the trigger occurrence this invocation represents.
	Event trigger.Event

	// OS is the host OS identifier used for pipeline selection and cache
	// keys. Empty means detect from the running platform.
	OS string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// ForceFailFast turns fail-fast on for every pipeline of this run,
	// regardless of what the manifests declare.
	ForceFailFast bool

	// CacheDir backs the "local" cache store.
	CacheDir string

	// CacheBackend, when set, overrides the cache backend every pipeline
	// declared. Lets a runner host force "local" (or "memory") without
	// editing manifests.
	CacheBackend string

	// S3 settings back the "s3" cache store; only read when a pipeline
	// selects that backend.
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
}

// NewConfig validates a Config assembled by the CLI layer.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	return &cfg, nil
}

// envOverrides mirrors the subset of Config adjustable through the
// environment, which is how a runner host injects credentials and tuning
// without touching the manifests.
type envOverrides struct {
	LogLevel     string `env:"GRIDCI_LOG_LEVEL"`
	LogFormat    string `env:"GRIDCI_LOG_FORMAT"`
	WorkerCount  int    `env:"GRIDCI_WORKERS"`
	CacheDir     string `env:"GRIDCI_CACHE_DIR"`
	CacheBackend string `env:"GRIDCI_CACHE_BACKEND"`
	S3Endpoint   string `env:"GRIDCI_S3_ENDPOINT"`
	S3Bucket     string `env:"GRIDCI_S3_BUCKET"`
	S3AccessKey  string `env:"GRIDCI_S3_ACCESS_KEY"`
	S3SecretKey  string `env:"GRIDCI_S3_SECRET_KEY"`
	S3UseSSL     *bool  `env:"GRIDCI_S3_USE_SSL"`
}

// applyEnvOverrides folds environment settings into the config. Set
// variables win over flags; unset variables leave the flag values alone.
func applyEnvOverrides(ctx context.Context, cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(ctx, &env); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}

	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.LogFormat = env.LogFormat
	}
	if env.WorkerCount > 0 {
		cfg.WorkerCount = env.WorkerCount
	}
	if env.CacheDir != "" {
		cfg.CacheDir = env.CacheDir
	}
	if env.CacheBackend != "" {
		cfg.CacheBackend = env.CacheBackend
	}
	if env.S3Endpoint != "" {
		cfg.S3Endpoint = env.S3Endpoint
	}
	if env.S3Bucket != "" {
		cfg.S3Bucket = env.S3Bucket
	}
	if env.S3AccessKey != "" {
		cfg.S3AccessKey = env.S3AccessKey
	}
	if env.S3SecretKey != "" {
		cfg.S3SecretKey = env.S3SecretKey
	}
	if env.S3UseSSL != nil {
		cfg.S3UseSSL = *env.S3UseSSL
	}
	return nil
}
