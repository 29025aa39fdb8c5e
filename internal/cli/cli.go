package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/app"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/scenario"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("heatgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
HeatGrid - 2D heat diffusion solver with pluggable parallel backends.

Usage:
  heatgrid [options] [SCENARIO_PATH]

Arguments:
  SCENARIO_PATH
    Path to a single .hcl scenario file or a directory containing .hcl files.
    Equivalent to --scenario.

Options:
`)
		flagSet.PrintDefaults()
	}

	scenarioFlag := flagSet.String("scenario", "", "Path to the scenario file or directory.")
	sFlag := flagSet.String("s", "", "Path to the scenario file or directory (shorthand).")
	engineFlag := flagSet.String("engine", "", "Engine for an ad-hoc run: 'sequential', 'threaded', 'shared', or 'distributed'.")
	widthFlag := flagSet.Int("width", 100, "Grid width for an ad-hoc run.")
	heightFlag := flagSet.Int("height", 100, "Grid height for an ad-hoc run.")
	iterationsFlag := flagSet.Int("iterations", 1000, "Iteration budget for an ad-hoc run.")
	workersFlag := flagSet.Int("workers", runtime.NumCPU(), "Number of workers for the parallel engines.")
	roleFlag := flagSet.String("role", app.RoleRun, "Process role. Options: 'run', 'worker', or 'segment-worker'.")
	hostFlag := flagSet.String("host", "localhost", "Master host for the distributed engine and the worker role.")
	portFlag := flagSet.Int("port", scenario.DefaultPort, "Master port for the distributed engine and the worker role.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	scenarioPath := ""
	if *scenarioFlag != "" {
		scenarioPath = *scenarioFlag
	} else if *sFlag != "" {
		scenarioPath = *sFlag
	} else if flagSet.NArg() > 0 {
		scenarioPath = flagSet.Arg(0)
	}
	slog.Debug("Scenario path determined.", "path", scenarioPath)

	role := strings.ToLower(*roleFlag)
	if role == app.RoleRun && scenarioPath == "" && *engineFlag == "" {
		slog.Debug("Nothing to run, printing usage and exiting.")
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
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ScenarioPath:    scenarioPath,
		Engine:          strings.ToLower(*engineFlag),
		Width:           *widthFlag,
		Height:          *heightFlag,
		Iterations:      *iterationsFlag,
		Workers:         *workersFlag,
		Role:            role,
		Host:            *hostFlag,
		Port:            *portFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
