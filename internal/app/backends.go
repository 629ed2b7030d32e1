package app

import (
	"context"

	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/registry"
	"github.com/gridci/gridci/internal/toolchain"
)

// defaultBackends is the definitive set of cache store backends and
// toolchain providers compiled into the gridci binary.
func defaultBackends(cfg *Config) []registry.Backend {
	return []registry.Backend{
		&localStoreBackend{dir: cfg.CacheDir},
		&memoryStoreBackend{},
		&s3StoreBackend{cfg: cachestore.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		}},
		&rustupBackend{},
	}
}

type localStoreBackend struct {
	dir string
}

func (b *localStoreBackend) Register(r *registry.Registry) {
	r.RegisterStore("local", func(_ context.Context, _ config.CacheConfig) (cachestore.Store, error) {
		return cachestore.NewLocal(b.dir)
	})
}

type memoryStoreBackend struct{}

func (b *memoryStoreBackend) Register(r *registry.Registry) {
	r.RegisterStore("memory", func(_ context.Context, _ config.CacheConfig) (cachestore.Store, error) {
		return cachestore.NewMemory(), nil
	})
}

type s3StoreBackend struct {
	cfg cachestore.S3Config
}

func (b *s3StoreBackend) Register(r *registry.Registry) {
	r.RegisterStore("s3", func(_ context.Context, _ config.CacheConfig) (cachestore.Store, error) {
		return cachestore.NewS3(b.cfg)
	})
}

type rustupBackend struct{}

func (b *rustupBackend) Register(r *registry.Registry) {
	r.RegisterProvisioner("rustup", func() toolchain.Provisioner {
		return &toolchain.Rustup{}
	})
}
