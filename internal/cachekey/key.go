// Package cachekey derives reproducible dependency-cache keys.
//
// A key is a composite of the host OS identifier, an optional namespace
// prefix, and a content hash of the dependency lockfile. Two jobs on the
// same OS with byte-identical lockfiles always resolve to the same key, so
// they share a cache entry; any byte difference in the lockfile changes the
// hash and forces a cache miss.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key addresses one entry in a cache store.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Derive computes the cache key for the given OS identifier and lockfile
// bytes. The lockfile must be the bytes as they exist after generation;
// hashing a stale or absent lockfile breaks the invalidation guarantee.
func Derive(osID, prefix string, lockfile []byte) Key {
	sum := sha256.Sum256(lockfile)

	parts := []string{osID}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, hex.EncodeToString(sum[:]))
	return Key(strings.Join(parts, "-"))
}
