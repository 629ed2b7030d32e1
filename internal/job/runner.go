// Package job runs one matrix cell through its lifecycle: provision the
// toolchain, generate the lockfile, restore the dependency cache, run the
// test suite, save the cache. Each job is an independently failing unit of
// work; nothing here is shared between sibling jobs except the cache store.
package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gridci/gridci/internal/cachekey"
	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/ctxlog"
	"github.com/gridci/gridci/internal/lockfile"
	"github.com/gridci/gridci/internal/matrix"
	"github.com/gridci/gridci/internal/suite"
	"github.com/gridci/gridci/internal/toolchain"
)

// Default axis names the provisioner draws its arguments from.
const (
	DefaultVersionAxis = "version"
	DefaultTargetAxis  = "target"
)

// Runner sequences one job's state machine over the external
// collaborators. A Runner is shared by all jobs of one pipeline and holds
// no per-job state; everything per-job lives on the stack of Run.
type Runner struct {
	OS          string
	CachePrefix string

	// VersionAxis and TargetAxis name the axes whose values are handed to
	// the provisioner. Empty means the defaults.
	VersionAxis string
	TargetAxis  string

	// Timeout bounds one job's wall clock. Zero means unbounded.
	Timeout time.Duration

	Provisioner toolchain.Provisioner
	Lockfile    lockfile.Generator
	Store       cachestore.Store
	Workspace   cachestore.Workspace
	Suite       suite.Executor
}

// Run executes the state machine for one spec and returns its immutable
// result. Run never returns an error: every failure mode is folded into
// the result so the fan-out controller can aggregate uniformly.
func (r *Runner) Run(ctx context.Context, spec matrix.JobSpec) (res Result) {
	logger := ctxlog.FromContext(ctx).With("job", spec.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	res = Result{Spec: spec, Outcome: Success, FailedAt: Done, Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	state := Pending

	// Provisioning.
	if !advance(ctx, logger, &state, Provisioning, &res) {
		return res
	}
	versionAxis, targetAxis := r.VersionAxis, r.TargetAxis
	if versionAxis == "" {
		versionAxis = DefaultVersionAxis
	}
	if targetAxis == "" {
		targetAxis = DefaultTargetAxis
	}
	if _, err := r.Provisioner.Install(ctx, spec.Value(versionAxis), spec.Value(targetAxis)); err != nil {
		fail(&res, state, Error, err, logger)
		return res
	}

	// Lockfile generation. Must precede key derivation.
	if !advance(ctx, logger, &state, LockfileGenerating, &res) {
		return res
	}
	lock, err := r.Lockfile.Generate(ctx)
	if err != nil {
		fail(&res, state, Error, err, logger)
		return res
	}
	key := cachekey.Derive(r.OS, r.CachePrefix, lock)
	logger = logger.With("cacheKey", key.String())

	// Cache restore. Store trouble is never fatal: a miss or a backend
	// error both degrade to running without a cache.
	if !advance(ctx, logger, &state, CacheRestoring, &res) {
		return res
	}
	r.restore(ctx, logger, key)

	// Testing.
	if !advance(ctx, logger, &state, Testing, &res) {
		return res
	}
	if err := r.Suite.Run(ctx); err != nil {
		var testFailure *suite.Failure
		if errors.As(err, &testFailure) {
			fail(&res, state, Failure, err, logger)
		} else {
			fail(&res, state, Error, err, logger)
		}
		return res
	}

	// Cache save. Only reached on success: a cache built during a failed
	// run is not worth persisting.
	if !advance(ctx, logger, &state, CacheSaving, &res) {
		return res
	}
	r.save(ctx, logger, key)

	logger.Debug("State transition.", "from", state.String(), "to", Done.String())
	logger.Info("Job finished.", "outcome", res.Outcome.String())
	return res
}

// advance moves the state machine forward, honoring cancellation between
// states. It returns false when the job must stop, with the result already
// marked.
func advance(ctx context.Context, logger *slog.Logger, state *State, next State, res *Result) bool {
	if err := ctx.Err(); err != nil {
		fail(res, *state, Error, err, logger)
		return false
	}
	logger.Debug("State transition.", "from", state.String(), "to", next.String())
	*state = next
	return true
}

func (r *Runner) restore(ctx context.Context, logger *slog.Logger, key cachekey.Key) {
	contents, err := r.Store.Restore(ctx, key)
	switch {
	case errors.Is(err, cachestore.ErrMiss):
		logger.Debug("Cache miss.")
		return
	case err != nil:
		logger.Warn("Cache restore failed, continuing without cache.", "error", err)
		return
	}

	if err := r.Workspace.Unpack(ctx, contents); err != nil {
		logger.Warn("Cache unpack failed, continuing without cache.", "error", err)
		return
	}
	logger.Info("Cache restored.", "bytes", len(contents))
}

func (r *Runner) save(ctx context.Context, logger *slog.Logger, key cachekey.Key) {
	contents, err := r.Workspace.Pack(ctx)
	if err != nil {
		logger.Warn("Cache pack failed, skipping save.", "error", err)
		return
	}
	if err := r.Store.Save(ctx, key, contents); err != nil {
		logger.Warn("Cache save failed.", "error", err)
		return
	}
	logger.Info("Cache saved.", "bytes", len(contents))
}

func fail(res *Result, at State, outcome Outcome, err error, logger *slog.Logger) {
	res.Outcome = outcome
	res.FailedAt = at
	res.Err = err
	logger.Error("Job failed.", "state", at.String(), "outcome", outcome.String(), "error", err)
}
