// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gridci/gridci/internal/app"
	"github.com/gridci/gridci/internal/trigger"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app
// Config, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("gridci", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridci - A declarative build-matrix orchestrator.

Usage:
  gridci [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a pipeline manifest (.hcl, .yml, .yaml) or a directory of manifests.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline manifest or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline manifest or directory (shorthand).")
	eventFlag := flagSet.String("event", "manual", "Triggering event kind: 'push', 'pull_request', or 'manual'.")
	branchFlag := flagSet.String("branch", "", "Branch of the triggering event (pushed branch, or merge-request target branch).")
	actionFlag := flagSet.String("action", "", "Merge-request lifecycle action: 'opened', 'synchronize', or 'reopened'.")
	osFlag := flagSet.String("os", "", "Host OS identifier. Defaults to the running platform.")
	workdirFlag := flagSet.String("workdir", ".", "Project working tree the jobs run in.")
	cacheDirFlag := flagSet.String("cache-dir", ".gridci-cache", "Directory backing the 'local' cache store.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the executor.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Cancel remaining jobs after the first failure, regardless of the manifests.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *pipelineFlag != "" {
		path = *pipelineFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	kind, err := trigger.ParseKind(strings.ToLower(*eventFlag))
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	config, err := app.NewConfig(app.Config{
		PipelinePath: path,
		WorkDir:      *workdirFlag,
		Event: trigger.Event{
			Kind:   kind,
			Branch: *branchFlag,
			Action: *actionFlag,
		},
		OS:              *osFlag,
		CacheDir:        *cacheDirFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		WorkerCount:     *workersFlag,
		ForceFailFast:   *failFastFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
