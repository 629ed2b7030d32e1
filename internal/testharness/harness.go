package testharness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridci/gridci/internal/app"
	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/loader"
	"github.com/gridci/gridci/internal/registry"
	"github.com/gridci/gridci/internal/testutil"
	"github.com/gridci/gridci/internal/toolchain"
	"github.com/gridci/gridci/internal/trigger"
)

// FakeBackend registers the fake toolchain provider and a shared in-memory
// cache store under the names the integration fixtures use.
type FakeBackend struct {
	Provisioner *testutil.FakeProvisioner
	Store       cachestore.Store
}

// NewFakeBackend creates a FakeBackend with a fresh provisioner and store.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Provisioner: &testutil.FakeProvisioner{},
		Store:       cachestore.NewMemory(),
	}
}

// Register implements registry.Backend.
func (b *FakeBackend) Register(r *registry.Registry) {
	r.RegisterProvisioner("fake", func() toolchain.Provisioner { return b.Provisioner })
	r.RegisterStore("memory", func(context.Context, config.CacheConfig) (cachestore.Store, error) {
		return b.Store, nil
	})
}

// HarnessResult carries everything an integration test asserts against.
type HarnessResult struct {
	// Err is the error returned by App.Run, or the recovered startup panic.
	Err error

	// LogOutput is everything the app wrote: logs and the summary report.
	LogOutput string
}

// RunIntegrationTest writes the given manifest fixtures to a temp directory,
// builds a full App around them, and runs it to completion. Startup panics
// are recovered into the result so fixtures with invalid declarations can be
// exercised too.
func RunIntegrationTest(t *testing.T, manifests map[string]string, cfg app.Config, backends ...registry.Backend) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	manifestDir := filepath.Join(root, "pipelines")
	workDir := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(manifestDir, 0o755))
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	for name, content := range manifests {
		path := filepath.Join(manifestDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg.PipelinePath = manifestDir
	if cfg.WorkDir == "" {
		cfg.WorkDir = workDir
	}
	if cfg.Event.Kind == "" {
		cfg.Event.Kind = trigger.KindManual
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 1
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(root, "cache")
	}

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	var out testutil.SafeBuffer
	result := &HarnessResult{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		a := app.NewApp(&out, appConfig, loader.New(), backends...)
		result.Err = a.Run(context.Background())
	}()

	result.LogOutput = out.String()
	return result
}
