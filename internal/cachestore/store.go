// Package cachestore defines the dependency cache contract and its
// backends.
//
// Cache contents are opaque blobs addressed by a cachekey.Key. The store is
// strictly best-effort: a backend failure degrades a job to "no cache", it
// never fails the job. Two jobs that compute the same key may race on
// population; the policy is last write wins, and a first reader may get a
// miss. That race costs a redundant rebuild, not correctness.
package cachestore

import (
	"context"
	"errors"

	"github.com/gridci/gridci/internal/cachekey"
)

// ErrMiss is returned by Restore when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

// Contents is an opaque cached blob. The orchestrator never inspects it.
type Contents []byte

// Store is the cache backend contract.
type Store interface {
	// Restore fetches the contents saved under key, or ErrMiss.
	Restore(ctx context.Context, key cachekey.Key) (Contents, error)

	// Save stores contents under key, replacing any previous entry.
	Save(ctx context.Context, key cachekey.Key, contents Contents) error
}
