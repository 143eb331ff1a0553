package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/evalgrid/internal/app"
	"github.com/specialistvlad/evalgrid/internal/cli"
)

// main is the entrypoint for the evalgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. An unsuccessful or cancelled run is reported as exit code 1.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Recover here so an unexpected panic still ends with a clean message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application panicked | %v", r)
		}
	}()

	evalApp := app.NewApp(outW, appConfig, nil)
	result, err := evalApp.Run(ctx)
	if err != nil {
		return err
	}
	switch {
	case result == nil:
		return nil
	case result.Cancelled:
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("run %s was cancelled", result.RunID)}
	case !result.OverallSuccess:
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("run %s failed", result.RunID)}
	}
	return nil
}
