package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/pipegridgo/internal/app"
	"github.com/vk/pipegridgo/internal/config"
	"github.com/vk/pipegridgo/internal/registry"
)

// Exit codes.
const (
	ExitFailure = 1 // invalid pipeline files or a failed run
	ExitUsage   = 2 // bad arguments or flags
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

// Options are the dependencies commands run with.
type Options struct {
	Out io.Writer
	// Err receives logs.
	Err    io.Writer
	Loader config.Loader
	// Modules override app.CoreModules when set.
	Modules []registry.Module
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	logLevel  string
	logFormat string
	output    string
}

// NewRootCommand builds the pipegridgo command tree.
func NewRootCommand(opts Options) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "pipegridgo",
		Short: "Validate and run declarative ETL pipelines",
		Long: `pipegridgo reads pipelines of blocks connected by pipes from .hcl files,
checks them, and runs them.

Blocks extract files, interpret them as sheets and tables, transform them and
load the result somewhere.`,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", app.OutputText, "Report format. Options: 'text', 'json' or 'yaml'.")

	root.AddCommand(newRunCommand(opts, g))
	root.AddCommand(newValidateCommand(opts, g))
	root.AddCommand(newBlocksCommand(opts, g))
	return root
}

// Execute runs the command tree with args. Every returned error is an
// *ExitError.
func Execute(ctx context.Context, opts Options, args []string) error {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// newConfig validates the flags of one command into an app.Config.
func (g *globalFlags) newConfig(cfg app.Config) (*app.Config, error) {
	cfg.LogLevel = strings.ToLower(g.logLevel)
	cfg.LogFormat = strings.ToLower(g.logFormat)
	cfg.OutputFormat = strings.ToLower(g.output)
	c, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return c, nil
}

// parseVariables turns repeated --var name=value flags into a map.
func parseVariables(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid --var %q: expected name=value", pair)}
		}
		if _, dup := vars[name]; dup {
			return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("variable %q is set more than once", name)}
		}
		vars[name] = value
	}
	return vars, nil
}

func pathArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%s expects exactly one PATH argument, got %d", cmd.Name(), len(args))}
	}
	return nil
}
