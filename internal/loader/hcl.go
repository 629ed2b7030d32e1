package loader

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gridci/gridci/internal/config"
)

// hclRoot is the top-level structure of an HCL manifest file.
type hclRoot struct {
	Pipelines []*hclPipeline `hcl:"pipeline,block"`
}

type hclPipeline struct {
	Name         string        `hcl:"name,label"`
	RunsOn       string        `hcl:"runs_on"`
	FailFast     *bool         `hcl:"fail_fast,optional"`
	Timeout      *string       `hcl:"timeout,optional"`
	NameTemplate *string       `hcl:"name_template,optional"`
	On           *hclOn        `hcl:"on,block"`
	Axes         []*hclAxis    `hcl:"axis,block"`
	Toolchain    *hclToolchain `hcl:"toolchain,block"`
	Lockfile     *hclLockfile  `hcl:"lockfile,block"`
	Cache        *hclCache     `hcl:"cache,block"`
	Test         *hclTest      `hcl:"test,block"`
}

type hclOn struct {
	Push        *hclPush        `hcl:"push,block"`
	PullRequest *hclPullRequest `hcl:"pull_request,block"`
}

type hclPush struct {
	Branches []string `hcl:"branches"`
}

type hclPullRequest struct {
	Actions []string `hcl:"actions,optional"`
}

type hclAxis struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

type hclToolchain struct {
	Provider string `hcl:"provider"`
}

type hclLockfile struct {
	Command []string `hcl:"command"`
	Path    string   `hcl:"path"`
}

type hclCache struct {
	Backend string   `hcl:"backend"`
	Prefix  string   `hcl:"prefix,optional"`
	Paths   []string `hcl:"paths,optional"`
}

type hclTest struct {
	Command   []string `hcl:"command"`
	NoCapture *bool    `hcl:"no_capture,optional"`
}

// parseHCL reads one HCL manifest file into pipeline declarations.
//
// Note on name_template: HCL evaluates "${...}" interpolation at decode
// time, so templates over axis values must be written with the doubled
// escape, e.g. "$${version}-$${target}". The decoded string then carries
// the literal template, evaluated per job at expansion time.
func parseHCL(path string) ([]*config.Pipeline, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	pipelines := make([]*config.Pipeline, 0, len(root.Pipelines))
	for _, hp := range root.Pipelines {
		p, err := hp.toConfig()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func (hp *hclPipeline) toConfig() (*config.Pipeline, error) {
	p := &config.Pipeline{
		Name:   hp.Name,
		RunsOn: hp.RunsOn,
	}

	if hp.FailFast != nil {
		p.FailFast = *hp.FailFast
	}
	if hp.NameTemplate != nil {
		p.NameTemplate = *hp.NameTemplate
	}
	if hp.Timeout != nil {
		d, err := time.ParseDuration(*hp.Timeout)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: invalid timeout: %w", hp.Name, err)
		}
		p.Timeout = d
	}

	if hp.On != nil {
		if hp.On.Push != nil {
			p.Triggers.Push = &config.PushTrigger{Branches: hp.On.Push.Branches}
		}
		if hp.On.PullRequest != nil {
			p.Triggers.PullRequest = &config.PullRequestTrigger{Actions: hp.On.PullRequest.Actions}
		}
	}

	for _, axis := range hp.Axes {
		p.Axes = append(p.Axes, config.Axis{Name: axis.Name, Values: axis.Values})
	}

	if hp.Toolchain != nil {
		p.Toolchain = config.ToolchainConfig{Provider: hp.Toolchain.Provider}
	}
	if hp.Lockfile != nil {
		p.Lockfile = config.LockfileConfig{Command: hp.Lockfile.Command, Path: hp.Lockfile.Path}
	}
	if hp.Cache != nil {
		p.Cache = config.CacheConfig{Backend: hp.Cache.Backend, Prefix: hp.Cache.Prefix, Paths: hp.Cache.Paths}
	}
	if hp.Test != nil {
		p.Test = config.TestConfig{Command: hp.Test.Command}
		if hp.Test.NoCapture != nil {
			p.Test.NoCapture = *hp.Test.NoCapture
		}
	}

	return p, nil
}
