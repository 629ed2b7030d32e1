package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gridci/gridci/internal/cachestore"
	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/ctxlog"
	"github.com/gridci/gridci/internal/executor"
	"github.com/gridci/gridci/internal/fsutil"
	"github.com/gridci/gridci/internal/job"
	"github.com/gridci/gridci/internal/lockfile"
	"github.com/gridci/gridci/internal/matrix"
	"github.com/gridci/gridci/internal/suite"
	"github.com/gridci/gridci/internal/toolchain"
	"github.com/gridci/gridci/internal/trigger"
)

// Run selects the pipelines matching the host OS and the triggering event,
// executes each one's full matrix, and reports the aggregate verdict. A
// non-nil error means at least one job failed (or the wiring itself broke).
func (a *App) Run(ctx context.Context) error {
	// The run owns its context so background helpers (the health server)
	// end with it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
	}

	matched := a.matchPipelines()
	if len(matched) == 0 {
		a.logger.Warn("No pipeline matched the trigger, nothing to run.",
			"event", string(a.config.Event.Kind), "branch", a.config.Event.Branch, "os", a.config.OS)
		return nil
	}

	totalJobs, failedJobs := 0, 0
	for _, p := range matched {
		summary, err := a.runPipeline(ctx, p)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		a.writeSummary(summary)
		totalJobs += len(summary.Results)
		failedJobs += summary.FailedCount()
	}

	a.logger.Debug("App.Run method finished.")
	if failedJobs > 0 {
		return fmt.Errorf("run failed: %d of %d jobs failed", failedJobs, totalJobs)
	}
	return nil
}

// matchPipelines filters the declarations by host OS and trigger rules.
func (a *App) matchPipelines() []*config.Pipeline {
	var matched []*config.Pipeline
	for _, p := range a.model.Pipelines {
		if p.RunsOn != a.config.OS {
			a.logger.Debug("Pipeline skipped, wrong host OS.", "pipeline", p.Name, "runsOn", p.RunsOn, "host", a.config.OS)
			continue
		}
		if !trigger.Match(p.Triggers, a.config.Event) {
			a.logger.Debug("Pipeline skipped, trigger did not match.", "pipeline", p.Name)
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// runPipeline expands one pipeline's matrix and fans it out.
func (a *App) runPipeline(ctx context.Context, p *config.Pipeline) (*executor.Summary, error) {
	a.logger.Info("🚀 Starting pipeline.", "pipeline", p.Name)

	specs, err := matrix.Expand(p.Axes, p.NameTemplate)
	if err != nil {
		return nil, fmt.Errorf("expanding matrix: %w", err)
	}

	cacheCfg := p.Cache
	if a.config.CacheBackend != "" {
		a.logger.Debug("Cache backend overridden.", "declared", p.Cache.Backend, "override", a.config.CacheBackend)
		cacheCfg.Backend = a.config.CacheBackend
	}
	store, err := a.registry.Store(ctx, cacheCfg)
	if err != nil {
		return nil, err
	}
	provisioner, err := a.registry.Provisioner(p.Toolchain.Provider)
	if err != nil {
		return nil, err
	}

	var suiteOut io.Writer = io.Discard
	if p.Test.NoCapture {
		suiteOut = a.outW
	}

	scratch, err := os.MkdirTemp("", "gridci-run-*")
	if err != nil {
		return nil, fmt.Errorf("creating job scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	runner := &pipelineRunner{
		pipeline:    p,
		store:       store,
		provisioner: provisioner,
		srcDir:      a.config.WorkDir,
		scratchDir:  scratch,
		suiteOut:    suiteOut,
	}

	exec := executor.New(runner, a.config.WorkerCount, p.FailFast || a.config.ForceFailFast)
	summary := exec.Run(ctx, p.Name, specs)
	a.logger.Info("🏁 Pipeline finished.", "pipeline", p.Name, "failed", summary.FailedCount(), "jobs", len(summary.Results))
	return summary, nil
}

// pipelineRunner builds the exec collaborators for each job over a private
// staged copy of the project tree. Sibling jobs share nothing mutable except
// the cache store, so a job regenerating its lockfile or unpacking a cache
// blob can never race a sibling's suite in the same directory.
type pipelineRunner struct {
	pipeline    *config.Pipeline
	store       cachestore.Store
	provisioner toolchain.Provisioner
	srcDir      string
	scratchDir  string
	suiteOut    io.Writer
}

// Run implements executor.Runner.
func (r *pipelineRunner) Run(ctx context.Context, spec matrix.JobSpec) job.Result {
	// Ordinals are filesystem-safe; rendered job names are not.
	jobDir := filepath.Join(r.scratchDir, fmt.Sprintf("job-%d", spec.Ordinal))
	if err := fsutil.CopyTree(r.srcDir, jobDir); err != nil {
		return job.Result{
			Spec:     spec,
			Outcome:  job.Error,
			FailedAt: job.Pending,
			Err:      fmt.Errorf("staging workspace: %w", err),
			Started:  time.Now(),
		}
	}

	p := r.pipeline
	runner := &job.Runner{
		OS:          p.RunsOn,
		CachePrefix: p.Cache.Prefix,
		Timeout:     p.Timeout,
		Provisioner: r.provisioner,
		Lockfile: &lockfile.ExecGenerator{
			Command: p.Lockfile.Command,
			Path:    p.Lockfile.Path,
			Dir:     jobDir,
		},
		Store: r.store,
		Workspace: &cachestore.DirWorkspace{
			Root:  jobDir,
			Paths: p.Cache.Paths,
		},
		Suite: &suite.ExecSuite{
			Command: p.Test.Command,
			Dir:     jobDir,
			Stdout:  r.suiteOut,
			Stderr:  r.suiteOut,
		},
	}
	return runner.Run(ctx, spec)
}

// writeSummary renders the per-job report on the CLI writer. Every job of
// the run appears here: a single failing cell never hides its siblings.
func (a *App) writeSummary(s *executor.Summary) {
	verdict := "passed"
	if !s.OK() {
		verdict = "FAILED"
	}
	fmt.Fprintf(a.outW, "\nrun %s  pipeline %q  %s  (%d jobs, %d failed)  %s\n",
		s.RunID, s.Pipeline, verdict, len(s.Results), s.FailedCount(), s.Duration.Round(time.Millisecond))

	for _, res := range s.Results {
		mark := "✅"
		detail := ""
		if res.Failed() {
			mark = "❌"
			detail = fmt.Sprintf("  at %s: %v", res.FailedAt, res.Err)
		}
		fmt.Fprintf(a.outW, "  %s %-40s %-8s %s%s\n",
			mark, res.Spec.Name, res.Outcome, res.Duration.Round(time.Millisecond), detail)
	}
}
