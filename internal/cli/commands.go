package cli

import (
	"github.com/spf13/cobra"
	"github.com/vk/pipegridgo/internal/app"
)

func newRunCommand(opts Options, g *globalFlags) *cobra.Command {
	var (
		pipelineName    string
		varPairs        []string
		workers         int
		healthcheckPort int
	)
	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Validate and execute pipelines",
		Long: `Validate the pipeline files at PATH and execute them.

PATH is a single .hcl file or a directory searched recursively for .hcl files.
Without --pipeline every pipeline is executed, one after another.`,
		Args: pathArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseVariables(varPairs)
			if err != nil {
				return err
			}
			cfg, err := g.newConfig(app.Config{
				PipelinePath:    args[0],
				PipelineName:    pipelineName,
				Variables:       vars,
				WorkerCount:     workers,
				HealthcheckPort: healthcheckPort,
			})
			if err != nil {
				return err
			}

			a := app.NewApp(opts.Err, cfg, opts.Loader, opts.Modules...)
			report, runErr := a.Run(cmd.Context())
			if err := printReport(cmd.OutOrStdout(), cfg.OutputFormat, report, runErr); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return exitFor(runErr)
		},
	}
	cmd.Flags().StringVarP(&pipelineName, "pipeline", "p", "", "Name of the single pipeline to run.")
	cmd.Flags().StringArrayVar(&varPairs, "var", nil, "Value of a declared variable, as name=value. Repeatable.")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of blocks that may run at once. 1 runs blocks sequentially.")
	cmd.Flags().IntVar(&healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func newValidateCommand(opts Options, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH",
		Short: "Check pipeline files without running them",
		Args:  pathArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.newConfig(app.Config{PipelinePath: args[0]})
			if err != nil {
				return err
			}

			a := app.NewApp(opts.Err, cfg, opts.Loader, opts.Modules...)
			v, validateErr := a.Validate(cmd.Context())
			report := &app.Report{Diagnostics: v.Diagnostics}
			if err := printReport(cmd.OutOrStdout(), cfg.OutputFormat, report, validateErr); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return exitFor(validateErr)
		},
	}
}

func newBlocksCommand(opts Options, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the available block kinds and their properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The registry does not depend on any pipeline files.
			cfg, err := g.newConfig(app.Config{PipelinePath: "."})
			if err != nil {
				return err
			}
			a := app.NewApp(opts.Err, cfg, opts.Loader, opts.Modules...)
			if err := printBlocks(cmd.OutOrStdout(), cfg.OutputFormat, a.Registry()); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
}

// exitFor maps an application error to the process exit code.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}
