// Package loader discovers pipeline manifest files and translates them into
// the format-agnostic config model. Two manifest formats are supported: HCL
// (.hcl) and YAML (.yml/.yaml). Both must produce identical models for
// equivalent declarations; the loader tests pin that equivalence.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridci/gridci/internal/config"
	"github.com/gridci/gridci/internal/ctxlog"
	"github.com/gridci/gridci/internal/fsutil"
)

// Loader implements config.Loader over manifest files on disk.
type Loader struct{}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// Load reads every manifest under the given paths into one Model. Each path
// may be a single manifest file or a directory searched recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{}
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtensions(path, ".hcl", ".yml", ".yaml")
		if err != nil {
			return nil, fmt.Errorf("finding manifests in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Warn("No manifest files found in path.", "path", path)
		}

		for _, file := range files {
			var pipelines []*config.Pipeline
			switch {
			case strings.HasSuffix(file, ".hcl"):
				pipelines, err = parseHCL(file)
			default:
				pipelines, err = parseYAML(file)
			}
			if err != nil {
				return nil, err
			}
			model.Pipelines = append(model.Pipelines, pipelines...)
		}
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Manifests loaded.", "pipelines", len(model.Pipelines))
	return model, nil
}
