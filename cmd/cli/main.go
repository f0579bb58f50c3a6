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

	"github.com/vk/pipegridgo/internal/cli"
	"github.com/vk/pipegridgo/internal/hcl_adapter"
	"github.com/vk/pipegridgo/internal/registry"
)

// main is the entrypoint for the pipegridgo application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	// The real main function handles errors and exit codes.
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
// handling. modules replace the compiled-in modules when given.
func run(ctx context.Context, outW, errW io.Writer, args []string, modules ...registry.Module) (err error) {
	// Module registration panics on programmer errors, so we recover here to
	// provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = &cli.ExitError{Code: cli.ExitFailure, Message: fmt.Sprintf("application startup panicked: %v", r)}
		}
	}()

	return cli.Execute(ctx, cli.Options{
		Out:     outW,
		Err:     errW,
		Loader:  hcl_adapter.NewLoader(),
		Modules: modules,
	}, args)
}
