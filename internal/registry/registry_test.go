package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/toolchain"
)

type nopProvisioner struct{}

func (nopProvisioner) Install(_ context.Context, version, target string) (toolchain.Handle, error) {
	return toolchain.Handle{Version: version, Target: target}, nil
}

func memoryFactory(context.Context, config.CacheConfig) (cachestore.Store, error) {
	return cachestore.NewMemory(), nil
}

func TestRegistry_StoreLookup(t *testing.T) {
	t.Parallel()

	// Arrange
	r := New()
	r.RegisterStore("memory", memoryFactory)

	// Act
	store, err := r.Store(context.Background(), config.CacheConfig{Backend: "memory"})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, store)

	_, err = r.Store(context.Background(), config.CacheConfig{Backend: "s3"})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown cache store backend "s3"`)
}

func TestRegistry_ProvisionerLookup(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterProvisioner("fake", func() toolchain.Provisioner { return nopProvisioner{} })

	p, err := r.Provisioner("fake")
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = r.Provisioner("rustup")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown toolchain provider "rustup"`)
}

// TestRegistry_DoubleRegistrationPanics pins that registering the same name
// twice is treated as a programmer error.
func TestRegistry_DoubleRegistrationPanics(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterStore("memory", memoryFactory)
	r.RegisterProvisioner("fake", func() toolchain.Provisioner { return nopProvisioner{} })

	require.Panics(t, func() {
		r.RegisterStore("memory", memoryFactory)
	})
	require.Panics(t, func() {
		r.RegisterProvisioner("fake", func() toolchain.Provisioner { return nopProvisioner{} })
	})
}

// TestRegistry_Validate verifies the startup parity check between the
// declarations and the registered backends.
func TestRegistry_Validate(t *testing.T) {
	t.Parallel()

	// Arrange
	r := New()
	r.RegisterStore("memory", memoryFactory)
	r.RegisterProvisioner("fake", func() toolchain.Provisioner { return nopProvisioner{} })

	valid := &config.Model{Pipelines: []*config.Pipeline{{
		Name:      "ci",
		Toolchain: config.ToolchainConfig{Provider: "fake"},
		Cache:     config.CacheConfig{Backend: "memory"},
	}}}
	invalid := &config.Model{Pipelines: []*config.Pipeline{{
		Name:      "ci",
		Toolchain: config.ToolchainConfig{Provider: "rustup"},
		Cache:     config.CacheConfig{Backend: "s3"},
	}}}

	// Act & Assert
	require.NoError(t, r.Validate(valid))

	err := r.Validate(invalid)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown cache store backend "s3"`)
	require.Contains(t, err.Error(), `unknown toolchain provider "rustup"`)
}
