package cachestore

import (
	"context"
	"sync"

	"github.com/gridci/gridci/internal/cachekey"
)

// Memory is an ephemeral, thread-safe in-memory store. It backs tests and
// single-process runs where persistence across invocations is not needed.
//
// sync.Map fits the access pattern: the key space is small and stable
// within a run, writes land on independent keys, and concurrent jobs read
// and write without global lock contention.
type Memory struct {
	entries sync.Map // Key: cachekey.Key, Value: Contents
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Restore implements Store.
func (m *Memory) Restore(_ context.Context, key cachekey.Key) (Contents, error) {
	value, ok := m.entries.Load(key)
	if !ok {
		return nil, ErrMiss
	}
	return value.(Contents), nil
}

// Save implements Store. The single map store makes replacement atomic, so
// concurrent savers of the same key resolve to last write wins.
func (m *Memory) Save(_ context.Context, key cachekey.Key, contents Contents) error {
	m.entries.Store(key, contents)
	return nil
}
