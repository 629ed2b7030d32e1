// Package config defines the immutable pipeline declaration model.
//
// A declaration is loaded exactly once at startup, validated, and never
// mutated during a run. Everything the orchestrator does (which events
// trigger a run, which matrix cells exist, which collaborators a job calls)
// is read from this model.
package config

import (
	"context"
	"fmt"
	"time"
)

// Model is the root of all loaded pipeline declarations. A workspace may
// declare several pipelines (for example one per host operating system),
// each in its own manifest file.
type Model struct {
	Pipelines []*Pipeline
}

// Loader turns manifest files on disk into a Model. Implementations exist
// for HCL and YAML manifests; both must produce identical models for
// equivalent declarations.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Pipeline is one declared pipeline: its trigger rules, its build matrix,
// and the configuration of the external collaborators each job calls.
type Pipeline struct {
	Name     string
	RunsOn   string // host OS identifier: "linux", "macos", "windows"
	FailFast bool
	Timeout  time.Duration // per-job limit, zero means none

	// NameTemplate renders the human-readable job name from axis values,
	// e.g. "${version}-${target}". Empty means axis values joined by "-".
	NameTemplate string

	Axes     []Axis
	Triggers Triggers

	Toolchain ToolchainConfig
	Lockfile  LockfileConfig
	Cache     CacheConfig
	Test      TestConfig
}

// Axis is a named dimension of variation with an ordered, finite value set.
type Axis struct {
	Name   string
	Values []string
}

// Triggers declares which events start a run. A nil trigger means that
// event kind never triggers this pipeline.
type Triggers struct {
	Push        *PushTrigger
	PullRequest *PullRequestTrigger
}

// PushTrigger matches pushes to any of the listed branches.
type PushTrigger struct {
	Branches []string
}

// PullRequestTrigger matches merge-request lifecycle events. An empty
// Actions list matches every action.
type PullRequestTrigger struct {
	Actions []string
}

// ToolchainConfig selects the toolchain provisioner backend by name.
type ToolchainConfig struct {
	Provider string
}

// LockfileConfig declares how the dependency lockfile is generated and
// where its bytes are read from afterwards.
type LockfileConfig struct {
	Command []string
	Path    string
}

// CacheConfig selects the cache store backend and the workspace paths that
// make up the cached contents. Prefix namespaces keys within the store.
type CacheConfig struct {
	Backend string
	Prefix  string
	Paths   []string
}

// TestConfig declares the test suite invocation. NoCapture streams suite
// output directly to the run's writer instead of discarding it.
type TestConfig struct {
	Command   []string
	NoCapture bool
}

// Validate checks a loaded model for declaration errors. It is called once
// at startup; a failure here is fatal.
func (m *Model) Validate() error {
	if len(m.Pipelines) == 0 {
		return fmt.Errorf("no pipelines declared")
	}
	seen := make(map[string]struct{}, len(m.Pipelines))
	for _, p := range m.Pipelines {
		if err := p.validate(); err != nil {
			return err
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("pipeline %q declared more than once", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func (p *Pipeline) validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline has no name")
	}
	if p.RunsOn == "" {
		return fmt.Errorf("pipeline %q: runs_on is required", p.Name)
	}
	axisNames := make(map[string]struct{}, len(p.Axes))
	for _, axis := range p.Axes {
		if axis.Name == "" {
			return fmt.Errorf("pipeline %q: axis with empty name", p.Name)
		}
		if _, dup := axisNames[axis.Name]; dup {
			return fmt.Errorf("pipeline %q: axis %q declared more than once", p.Name, axis.Name)
		}
		axisNames[axis.Name] = struct{}{}

		// Duplicate values within one axis would produce duplicate job
		// specs, which breaks the uniqueness guarantee of the expansion.
		values := make(map[string]struct{}, len(axis.Values))
		for _, v := range axis.Values {
			if _, dup := values[v]; dup {
				return fmt.Errorf("pipeline %q: axis %q: duplicate value %q", p.Name, axis.Name, v)
			}
			values[v] = struct{}{}
		}
	}
	if len(p.Test.Command) == 0 {
		return fmt.Errorf("pipeline %q: test command is required", p.Name)
	}
	if len(p.Lockfile.Command) == 0 {
		return fmt.Errorf("pipeline %q: lockfile command is required", p.Name)
	}
	if p.Lockfile.Path == "" {
		return fmt.Errorf("pipeline %q: lockfile path is required", p.Name)
	}
	return nil
}
