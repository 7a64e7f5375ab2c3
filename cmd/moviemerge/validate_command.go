package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moviemerge/internal/config"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline config and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			issues := config.ValidatePipeline(p)
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: ok\n", ctx.configPath())
				return nil
			}
			printIssues(out, issues)
			if config.HasErrors(issues) {
				return fmt.Errorf("%s: %w", ctx.configPath(), firstError(issues))
			}
			return nil
		},
	}
}
