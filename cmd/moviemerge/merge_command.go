package main

import (
	"github.com/spf13/cobra"

	"moviemerge/internal/config"
	"moviemerge/internal/datasource/file"
	"moviemerge/internal/index"
	"moviemerge/internal/pipeline"
	"moviemerge/internal/report"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var (
		output     string
		skippedDir string
		normalize  bool
		fetchFirst bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Build the merged movie file from the six extracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.validConfig()
			if err != nil {
				return err
			}
			if output != "" {
				p.Output.Path = output
			}
			if skippedDir != "" {
				p.Output.SkippedDir = skippedDir
			}
			if normalize {
				p.Output.NormalizeUnicode = true
			}

			flush, err := setupMetrics(p, ctx.runID)
			if err != nil {
				return err
			}
			defer flush()

			if fetchFirst {
				if _, err := fetchMissing(cmd.Context(), p); err != nil {
					return err
				}
			}

			res, err := pipeline.Run(cmd.Context(), sourcesFromConfig(p.Sources), pipelineOptions(p, ctx.runID))
			if err != nil {
				return err
			}
			return report.Fprint(cmd.OutOrStdout(), report.Merge(res))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Merged output path (overrides output.path)")
	cmd.Flags().StringVar(&skippedDir, "skipped-dir", "", "Directory for per-source skipped-row CSVs")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Apply Unicode NFC to titles and names")
	cmd.Flags().BoolVar(&fetchFirst, "fetch", false, "Download missing extracts before merging")
	return cmd
}

func sourcesFromConfig(s config.Sources) pipeline.Sources {
	return pipeline.Sources{
		Ratings:    file.NewLocal(pipeline.StageRatings, s.Ratings),
		Crew:       file.NewLocal(pipeline.StageCrew, s.Crew),
		Names:      file.NewLocal(pipeline.StageNames, s.Names),
		Principals: file.NewLocal(pipeline.StagePrincipals, s.Principals),
		Akas:       file.NewLocal(pipeline.StageAkas, s.Akas),
		Basics:     file.NewLocal(pipeline.StageBasics, s.Basics),
	}
}

func pipelineOptions(p config.Pipeline, runID string) pipeline.Options {
	rt := p.Runtime
	return pipeline.Options{
		Job:        p.Job,
		RunID:      runID,
		OutputPath: p.Output.Path,
		SkippedDir: p.Output.SkippedDir,
		Index: index.Options{
			BufferSize:        rt.ReadBufferKB << 10,
			ProgressEvery:     int64(rt.ProgressEvery),
			Normalize:         p.Output.NormalizeUnicode,
			CastLimit:         rt.CastLimit,
			CanonicalLanguage: rt.CanonicalLanguage,
			CanonicalCountry:  rt.CanonicalCountry,
		},
		CrewLimit:         rt.CrewLimit,
		JoinProgressEvery: 100_000,
	}
}
