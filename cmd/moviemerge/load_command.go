package main

import (
	"time"

	"github.com/spf13/cobra"

	"moviemerge/internal/datasource/file"
	"moviemerge/internal/metrics"
	"moviemerge/internal/report"
	"moviemerge/internal/skiplog"
	"moviemerge/internal/storage"

	_ "moviemerge/internal/storage/postgres"
	_ "moviemerge/internal/storage/sqlite"
)

func newLoadCommand(ctx *commandContext) *cobra.Command {
	var (
		input     string
		keep      bool
		noIndexes bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a merged movie file into the configured store",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := ctx.validConfig()
			if err != nil {
				return err
			}
			if input == "" {
				input = p.Output.Path
			}

			flush, err := setupMetrics(p, ctx.runID)
			if err != nil {
				return err
			}
			defer flush()

			start := time.Now()
			defer func() { metrics.RecordStage(p.Job, "load", err, time.Since(start)) }()

			rc, err := file.NewLocal("load", input).Open(cmd.Context())
			if err != nil {
				return err
			}
			defer rc.Close()

			repo, err := storage.New(cmd.Context(), storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN, Table: p.Storage.Table})
			if err != nil {
				return err
			}
			defer repo.Close()

			skips, err := skiplog.Create(p.Output.SkippedDir, "load")
			if err != nil {
				return err
			}
			defer skips.Close()

			st, err := storage.LoadFile(cmd.Context(), repo, rc, storage.LoadOptions{
				Kind:          p.Storage.Kind,
				Table:         p.Storage.Table,
				BatchSize:     p.Storage.BatchSize,
				Replace:       !keep,
				CreateIndexes: p.Storage.CreateIndexes && !noIndexes,
				SkipLog:       skips,
			})
			metrics.RecordRow(p.Job, "load", metrics.KindInserted, st.Inserted)
			metrics.RecordRow(p.Job, "load", metrics.KindSkipped, st.Malformed)
			metrics.RecordBatches(p.Job, st.Batches)
			if err != nil {
				return err
			}
			return report.Fprint(cmd.OutOrStdout(), report.Load(report.LoadSummary{
				Table:     p.Storage.Table,
				Lines:     st.Lines,
				Inserted:  st.Inserted,
				Malformed: st.Malformed,
				Batches:   st.Batches,
				Duration:  st.Duration,
			}))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Merged file to load (default output.path)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Append to an existing table instead of replacing it")
	cmd.Flags().BoolVar(&noIndexes, "no-indexes", false, "Skip index creation even if storage.create_indexes is set")
	return cmd
}
