// Package registry maps the backend names used in pipeline declarations to
// the Go implementations compiled into the binary. Declarations select a
// cache store backend and a toolchain provider by name; the registry is
// validated against the loaded model at startup so that a typo fails the
// run before any job starts.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/toolchain"
)

// StoreFactory builds a cache store from a pipeline's cache declaration.
type StoreFactory func(ctx context.Context, cfg config.CacheConfig) (cachestore.Store, error)

// ProvisionerFactory builds a toolchain provisioner.
type ProvisionerFactory func() toolchain.Provisioner

// Backend registers one or more implementations with a registry. The
// default set lives in internal/app; tests register fakes.
type Backend interface {
	Register(r *Registry)
}

// Registry holds the named factories for one application instance.
type Registry struct {
	stores       map[string]StoreFactory
	provisioners map[string]ProvisionerFactory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		stores:       make(map[string]StoreFactory),
		provisioners: make(map[string]ProvisionerFactory),
	}
}

// RegisterStore registers a cache store backend under name. Double
// registration is a programmer error.
func (r *Registry) RegisterStore(name string, factory StoreFactory) {
	if _, exists := r.stores[name]; exists {
		panic(fmt.Sprintf("cache store backend %q already registered", name))
	}
	slog.Debug("Registering cache store backend.", "name", name)
	r.stores[name] = factory
}

// RegisterProvisioner registers a toolchain provider under name. Double
// registration is a programmer error.
func (r *Registry) RegisterProvisioner(name string, factory ProvisionerFactory) {
	if _, exists := r.provisioners[name]; exists {
		panic(fmt.Sprintf("toolchain provider %q already registered", name))
	}
	slog.Debug("Registering toolchain provider.", "name", name)
	r.provisioners[name] = factory
}

// Store builds the cache store selected by the declaration.
func (r *Registry) Store(ctx context.Context, cfg config.CacheConfig) (cachestore.Store, error) {
	factory, ok := r.stores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown cache store backend %q", cfg.Backend)
	}
	return factory(ctx, cfg)
}

// Provisioner builds the toolchain provider selected by the declaration.
func (r *Registry) Provisioner(name string) (toolchain.Provisioner, error) {
	factory, ok := r.provisioners[name]
	if !ok {
		return nil, fmt.Errorf("unknown toolchain provider %q", name)
	}
	return factory(), nil
}

// Validate performs a parity check between the loaded declarations and the
// registered backends: every name a pipeline selects must resolve.
func (r *Registry) Validate(model *config.Model) error {
	var errs []string
	for _, p := range model.Pipelines {
		if _, ok := r.stores[p.Cache.Backend]; !ok {
			errs = append(errs, fmt.Sprintf("pipeline %q: unknown cache store backend %q", p.Name, p.Cache.Backend))
		}
		if _, ok := r.provisioners[p.Toolchain.Provider]; !ok {
			errs = append(errs, fmt.Sprintf("pipeline %q: unknown toolchain provider %q", p.Name, p.Toolchain.Provider))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
