package loader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridci/gridci/internal/config"
)

// yamlPipeline is the structural representation of a YAML manifest file.
// One file declares one pipeline.
type yamlPipeline struct {
	Pipeline     string         `yaml:"pipeline"`
	RunsOn       string         `yaml:"runs_on"`
	FailFast     bool           `yaml:"fail_fast"`
	Timeout      string         `yaml:"timeout"`
	NameTemplate string         `yaml:"name_template"`
	When         []yamlWhen     `yaml:"when"`
	Matrix       yaml.Node      `yaml:"matrix"`
	Toolchain    yamlToolchain  `yaml:"toolchain"`
	Lockfile     yamlLockfile   `yaml:"lockfile"`
	Cache        yamlCache      `yaml:"cache"`
	Test         yamlTest       `yaml:"test"`
}

type yamlWhen struct {
	Event  []string `yaml:"event"`
	Branch []string `yaml:"branch"`
	Action []string `yaml:"action"`
}

type yamlToolchain struct {
	Provider string `yaml:"provider"`
}

type yamlLockfile struct {
	Command []string `yaml:"command"`
	Path    string   `yaml:"path"`
}

type yamlCache struct {
	Backend string   `yaml:"backend"`
	Prefix  string   `yaml:"prefix"`
	Paths   []string `yaml:"paths"`
}

type yamlTest struct {
	Command   []string `yaml:"command"`
	NoCapture bool     `yaml:"no_capture"`
}

// parseYAML reads one YAML manifest file into a pipeline declaration.
func parseYAML(path string) ([]*config.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var yp yamlPipeline
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	p := &config.Pipeline{
		Name:         yp.Pipeline,
		RunsOn:       yp.RunsOn,
		FailFast:     yp.FailFast,
		NameTemplate: yp.NameTemplate,
		Toolchain:    config.ToolchainConfig{Provider: yp.Toolchain.Provider},
		Lockfile:     config.LockfileConfig{Command: yp.Lockfile.Command, Path: yp.Lockfile.Path},
		Cache:        config.CacheConfig{Backend: yp.Cache.Backend, Prefix: yp.Cache.Prefix, Paths: yp.Cache.Paths},
		Test:         config.TestConfig{Command: yp.Test.Command, NoCapture: yp.Test.NoCapture},
	}

	if yp.Timeout != "" {
		d, err := time.ParseDuration(yp.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%s: pipeline %q: invalid timeout: %w", path, yp.Pipeline, err)
		}
		p.Timeout = d
	}

	// Repeated entries for the same event kind merge their lists, so
	// declaring push branches across several when entries widens the rule
	// instead of silently replacing it.
	for _, when := range yp.When {
		for _, event := range when.Event {
			switch event {
			case "push":
				if p.Triggers.Push == nil {
					p.Triggers.Push = &config.PushTrigger{}
				}
				p.Triggers.Push.Branches = append(p.Triggers.Push.Branches, when.Branch...)
			case "pull_request":
				if p.Triggers.PullRequest == nil {
					p.Triggers.PullRequest = &config.PullRequestTrigger{}
				}
				p.Triggers.PullRequest.Actions = append(p.Triggers.PullRequest.Actions, when.Action...)
			default:
				return nil, fmt.Errorf("%s: pipeline %q: unknown trigger event %q", path, yp.Pipeline, event)
			}
		}
	}

	axes, err := decodeMatrix(&yp.Matrix)
	if err != nil {
		return nil, fmt.Errorf("%s: pipeline %q: %w", path, yp.Pipeline, err)
	}
	p.Axes = axes

	return []*config.Pipeline{p}, nil
}

// decodeMatrix reads the matrix mapping while preserving the declaration
// order of its keys. A plain map decode would lose the axis order, and the
// expansion order of the matrix depends on it.
func decodeMatrix(node *yaml.Node) ([]config.Axis, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("matrix must be a mapping of axis name to value list")
	}

	var axes []config.Axis
	// MappingNode content alternates key, value, key, value.
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var values []string
		if err := valueNode.Decode(&values); err != nil {
			return nil, fmt.Errorf("axis %q: %w", keyNode.Value, err)
		}
		axes = append(axes, config.Axis{Name: keyNode.Value, Values: values})
	}
	return axes, nil
}
