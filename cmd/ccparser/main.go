// Command ccparser parses Axis Bank credit-card statements into a local
// store, categorizes the transactions and reports on spending.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/config"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitStorage = 2
)

// errUsage marks a malformed command line. The command's usage is printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("ccparser", flag.ContinueOnError)
	global.SetOutput(stderr)
	dbFlag := global.String("db", "", "database file (sqlite) or DSN (postgres); overrides the environment")
	noColor := global.Bool("no-color", false, "disable coloured output")
	global.Usage = func() { printUsage(stderr) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if global.NArg() == 0 {
		printUsage(stderr)
		return exitFailure
	}

	name, rest := global.Arg(0), global.Args()[1:]
	if name == "help" {
		printUsage(stdout)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
		printUsage(stderr)
		return exitFailure
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	if *dbFlag != "" {
		if cfg.Database.Driver == "postgres" {
			cfg.Database.DSN = *dbFlag
		} else {
			cfg.Database.Path = *dbFlag
		}
	}

	logger, err := telemetry.NewLogger(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	metrics := telemetry.NewMetrics()

	started := time.Now()
	err = func() error {
		deps, err := InitDependencies(ctx, cfg, logger, metrics)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		return cmd.run(ctx, &env{
			deps:    deps,
			stdout:  stdout,
			stderr:  stderr,
			noColor: *noColor,
		}, rest)
	}()
	metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	code := exitOK
	if errors.Is(err, flag.ErrHelp) {
		err = nil
	}
	if err != nil {
		metrics.CommandErrors.WithLabelValues(name, errorKind(err)).Inc()
		code = exitCode(err)
		fmt.Fprintf(stderr, "error: %v\n", err)
	}

	if err := metrics.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.Telemetry.MetricsFile, "error", err)
	}
	return code
}

func exitCode(err error) int {
	if apperr.IsStorage(err) {
		return exitStorage
	}
	return exitFailure
}

func errorKind(err error) string {
	switch {
	case apperr.IsStorage(err):
		return "storage"
	case apperr.IsParse(err):
		return "parse"
	case apperr.IsDuplicate(err):
		return "duplicate"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsValidation(err):
		return "validation"
	case errors.Is(err, errUsage):
		return "usage"
	default:
		return "other"
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ccparser - Axis Bank credit-card statement tracker")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  ccparser [-db path] [-no-color] <command> [options] [arguments]")
	fmt.Fprintln(w, "\nCommands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-17s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nOptions go before arguments. Run 'ccparser <command> -h' for a command's options.")
}
