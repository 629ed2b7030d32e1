package testutil

import (
	"context"
	"sync"

	"github.com/gridci/gridci/internal/cachekey"
	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/toolchain"
)

// FakeProvisioner records install requests and optionally fails them.
type FakeProvisioner struct {
	mu       sync.Mutex
	installs [][2]string

	// Err, when set, fails every Install call.
	Err error
}

// Install implements toolchain.Provisioner.
func (f *FakeProvisioner) Install(_ context.Context, version, target string) (toolchain.Handle, error) {
	f.mu.Lock()
	f.installs = append(f.installs, [2]string{version, target})
	f.mu.Unlock()

	if f.Err != nil {
		return toolchain.Handle{}, &toolchain.Error{Version: version, Target: target, Err: f.Err}
	}
	return toolchain.Handle{Version: version, Target: target}, nil
}

// Installs returns the recorded (version, target) pairs.
func (f *FakeProvisioner) Installs() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.installs...)
}

// FakeGenerator returns fixed lockfile bytes, or an error.
type FakeGenerator struct {
	mu    sync.Mutex
	calls int

	Bytes []byte
	Err   error
}

// Generate implements lockfile.Generator.
func (f *FakeGenerator) Generate(context.Context) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return f.Bytes, nil
}

// Calls returns how many times Generate ran.
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeSuite passes or fails the test suite on demand.
type FakeSuite struct {
	mu    sync.Mutex
	calls int

	// Err is returned from every Run call. Use *suite.Failure for a test
	// failure, any other error for an infrastructure error.
	Err error
}

// Run implements suite.Executor.
func (f *FakeSuite) Run(context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.Err
}

// Calls returns how many times the suite ran.
func (f *FakeSuite) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeWorkspace packs fixed contents and records what was unpacked.
type FakeWorkspace struct {
	mu       sync.Mutex
	unpacked []cachestore.Contents

	Contents cachestore.Contents
	PackErr  error
}

// Pack implements cachestore.Workspace.
func (f *FakeWorkspace) Pack(context.Context) (cachestore.Contents, error) {
	if f.PackErr != nil {
		return nil, f.PackErr
	}
	return f.Contents, nil
}

// Unpack implements cachestore.Workspace.
func (f *FakeWorkspace) Unpack(_ context.Context, contents cachestore.Contents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unpacked = append(f.unpacked, contents)
	return nil
}

// Unpacked returns every contents blob handed to Unpack.
func (f *FakeWorkspace) Unpacked() []cachestore.Contents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cachestore.Contents(nil), f.unpacked...)
}

// FlakyStore delegates to an inner store after failing the first N
// operations, to exercise the best-effort cache policy.
type FlakyStore struct {
	mu        sync.Mutex
	failures  int
	saveCalls int

	Inner    cachestore.Store
	FailOps  int
	FailWith error
}

// Restore implements cachestore.Store.
func (f *FlakyStore) Restore(ctx context.Context, key cachekey.Key) (cachestore.Contents, error) {
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.Inner.Restore(ctx, key)
}

// Save implements cachestore.Store.
func (f *FlakyStore) Save(ctx context.Context, key cachekey.Key, contents cachestore.Contents) error {
	f.mu.Lock()
	f.saveCalls++
	f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return err
	}
	return f.Inner.Save(ctx, key, contents)
}

// SaveCalls returns how many times Save was attempted.
func (f *FlakyStore) SaveCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

func (f *FlakyStore) nextErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures < f.FailOps {
		f.failures++
		return f.FailWith
	}
	return nil
}
