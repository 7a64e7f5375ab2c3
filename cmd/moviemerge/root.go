package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"moviemerge/internal/logging"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		logLevel   string
		logFormat  string
	)
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "moviemerge",
		Short:         "Merge the title extracts into one movie per line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.runID = uuid.NewString()
			logging.Init(logging.Config{
				Level:  logLevel,
				Format: logFormat,
				RunID:  ctx.runID,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Pipeline config file (default "+defaultConfigLabel+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "Log format: json, console or auto")

	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newLoadCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	return rootCmd
}
