// Package app encapsulates the application's dependencies, configuration,
// and lifecycle: building the logger, loading and validating the pipeline
// declarations, wiring the backend registry, and running the matched
// pipelines to a verdict.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/ctxlog"
	"github.com/gridci/gridci/internal/registry"
)

// App is one fully wired application instance.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	registry *registry.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry.
// Critical startup errors (unreadable manifests, unknown backend names)
// panic; the CLI entrypoint recovers and turns them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, backends ...registry.Backend) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	if err := applyEnvOverrides(ctx, cfg); err != nil {
		panic(err)
	}
	// The environment may have changed the log settings.
	logger = newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if cfg.OS == "" {
		cfg.OS = config.HostOS()
	}

	model, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline declarations: %w", err))
	}
	logger.Debug("Pipeline declarations loaded.", "pipelines", len(model.Pipelines))

	reg := registry.New()
	if len(backends) == 0 {
		backends = defaultBackends(cfg)
	}
	for _, backend := range backends {
		backend.Register(reg)
	}
	logger.Debug("All backends registered.", "count", len(backends))

	if err := reg.Validate(model); err != nil {
		// A declaration naming an unregistered backend can never run.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		model:    model,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded declarations. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
