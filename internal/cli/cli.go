package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("evalgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
EvalGrid - A declarative orchestrator for evaluation and benchmark runs.

Usage:
  evalgrid [options] [PLAN_PATH]

Arguments:
  PLAN_PATH
    Path to a .yaml/.yml plan, a single .hcl file, or a directory of .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	planFlag := flagSet.String("plan", "", "Path to the plan file or directory.")
	pFlag := flagSet.String("p", "", "Path to the plan file or directory (shorthand).")
	stepsFlag := flagSet.String("steps", "", "Comma-separated steps to run; their dependencies are included.")
	outputFlag := flagSet.String("output", "", "Directory for run results. Overrides global.output_directory.")
	workersFlag := flagSet.Int("workers", 0, "Worker count in parallel mode. 0 uses global.max_workers.")
	parallelFlag := flagSet.String("parallel", "", "Force parallel ('true') or sequential ('false') execution.")
	runTimeoutFlag := flagSet.Duration("run-timeout", 0, "Cancel the whole run after this duration, e.g. 30m. 0 is no limit.")
	validateFlag := flagSet.Bool("validate", false, "Validate the plan and print the execution order without running it.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and /metrics server. 0 is disabled.")
	eventsURLFlag := flagSet.String("events-url", "", "socket.io server URL that receives live run events.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *planFlag != "" {
		path = *planFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Plan path determined.", "path", path)

	if path == "" {
		slog.Debug("No plan path provided, printing usage and exiting.")
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

	var parallel *bool
	switch strings.ToLower(*parallelFlag) {
	case "":
	case "true":
		v := true
		parallel = &v
	case "false":
		v := false
		parallel = &v
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid parallel: must be 'true' or 'false'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PlanPath:        path,
		Steps:           splitList(*stepsFlag),
		OutputDir:       *outputFlag,
		WorkerCount:     *workersFlag,
		Parallel:        parallel,
		RunTimeout:      *runTimeoutFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		EventsURL:       *eventsURLFlag,
		ValidateOnly:    *validateFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
