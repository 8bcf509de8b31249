package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/blueprintgo/internal/app"
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

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags may appear anywhere among the positional arguments.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("blueprint", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Blueprint - build node graphs from a backend catalog and submit them for execution.

Usage:
  blueprint [options] catalog
  blueprint [options] submit GRAPH_FILE

Commands:
  catalog
    Load the node catalog and print it as JSON.
  submit GRAPH_FILE
    Load an .hcl graph document, validate it against the catalog and
    submit it to the execution backend.

Options:
`)
		flagSet.PrintDefaults()
	}

	backendFlag := flagSet.String("backend", "", "Base URL of the execution backend, e.g. http://127.0.0.1:7860.")
	catalogFlag := flagSet.String("catalog", "", "Path to an .hcl node manifest file or directory, used when the backend is unavailable.")
	cacheFlag := flagSet.String("catalog-cache", "", "Path to a SQLite file caching the last catalog fetched from the backend.")
	liveFlag := flagSet.String("live", "", "URL of the backend's live event channel, e.g. http://127.0.0.1:7860/ws.")
	liveTransportFlag := flagSet.String("live-transport", "websocket", "Live channel protocol. Options: 'websocket' or 'socketio'.")
	clientIDFlag := flagSet.String("client-id", "", "Live session id to resume.")
	followFlag := flagSet.Bool("follow", false, "After submitting, print live events until the execution finishes. Requires -live.")
	followTimeoutFlag := flagSet.Duration("follow-timeout", 0, "Give up following after this long. 0 waits forever.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the submission instead of sending it.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	// Flags may be interleaved with positional arguments, so parse until
	// every argument is consumed.
	var positional []string
	remaining := args
	for {
		if err := flagSet.Parse(remaining); err != nil {
			if err == flag.ErrHelp {
				return nil, true, nil
			}
			return nil, false, usageError("%s", err.Error())
		}
		if flagSet.NArg() == 0 {
			break
		}
		positional = append(positional, flagSet.Arg(0))
		remaining = flagSet.Args()[1:]
	}

	if len(positional) == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := strings.ToLower(positional[0])
	rest := positional[1:]
	slog.Debug("Arguments parsed successfully.", "command", command, "args", rest)

	var graphFile string
	switch command {
	case app.CommandCatalog:
		if len(rest) > 0 {
			return nil, false, usageError("catalog takes no arguments, got %q", rest)
		}
	case app.CommandSubmit:
		if len(rest) != 1 {
			return nil, false, usageError("submit takes exactly one GRAPH_FILE argument")
		}
		graphFile = rest[0]
	default:
		return nil, false, usageError("unknown command %q", command)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	config, err := app.NewConfig(app.Config{
		Command:         command,
		GraphFile:       graphFile,
		Backend:         strings.TrimRight(*backendFlag, "/"),
		CatalogPath:     *catalogFlag,
		CatalogCache:    *cacheFlag,
		Live:            *liveFlag,
		LiveTransport:   strings.ToLower(*liveTransportFlag),
		ClientID:        *clientIDFlag,
		Follow:          *followFlag,
		FollowTimeout:   *followTimeoutFlag,
		DryRun:          *dryRunFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

