package cachestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gridci/gridci/internal/cachekey"
)

// Local is a filesystem-backed store: one file per key under a root
// directory. Keys are OS identifiers plus hex digests, so they are always
// safe as file names.
type Local struct {
	root string
}

// NewLocal creates a store rooted at dir, creating it if necessary.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &Local{root: dir}, nil
}

// Restore implements Store.
func (l *Local) Restore(_ context.Context, key cachekey.Key) (Contents, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return data, nil
}

// Save implements Store. The write goes to a temp file first and is moved
// into place with rename, so a concurrent reader either sees the previous
// complete entry or the new one, never a partial write.
func (l *Local) Save(_ context.Context, key cachekey.Key, contents Contents) error {
	tmp, err := os.CreateTemp(l.root, ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache entry %s: %w", key, err)
	}

	if err := os.Rename(tmpName, l.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publishing cache entry %s: %w", key, err)
	}
	return nil
}

func (l *Local) path(key cachekey.Key) string {
	return filepath.Join(l.root, key.String())
}
