package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"moviemerge/internal/config"
	"moviemerge/internal/datasource/httpds"
	"moviemerge/internal/logging"
)

// extractFiles are the published extract names, in download order.
var extractFiles = []string{
	config.RatingsFile,
	config.CrewFile,
	config.NamesFile,
	config.PrincipalsFile,
	config.AkasFile,
	config.BasicsFile,
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download any missing extracts into fetch.dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.validConfig()
			if err != nil {
				return err
			}
			results, err := fetchMissing(cmd.Context(), p)
			for _, r := range results {
				status := "downloaded " + logging.Bytes(r.Bytes)
				if r.Skipped {
					status = "present"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", r.Path, status)
			}
			return err
		},
	}
}

func fetchMissing(ctx context.Context, p config.Pipeline) ([]httpds.FetchResult, error) {
	client := httpds.NewClient(httpds.Config{
		Timeout:    p.Fetch.Timeout.Duration,
		MaxRetries: p.Fetch.MaxRetries,
		UserAgent:  "moviemerge/" + p.Job,
	})
	return httpds.NewFetcher(client).FetchAll(ctx, p.Fetch.BaseURL, p.Fetch.Dir, extractFiles)
}
