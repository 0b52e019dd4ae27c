package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"framecut/internal/media"
	"framecut/internal/pipeline"
	"framecut/internal/similarity"
)

func newAutoCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		algorithmFlag   string
		thresholdFlag   float64
		minDurationFlag float64
		skipFirstFlag   bool
		skipLastFlag    bool
		deleteFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "auto INPUT_DIR OUTPUT_DIR",
		Short: "Split a folder of MP4 files at scene cuts, unattended",
		Long: `Runs the whole batch without supervision. Each file is split into
segments wherever consecutive frames score below the similarity threshold;
segments shorter than the minimum duration are merged into their neighbor.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			split := cfg.AutoSplit
			if cmd.Flags().Changed("algorithm") {
				split.Algorithm = algorithmFlag
			}
			if cmd.Flags().Changed("threshold") {
				split.Threshold = thresholdFlag
			}
			if cmd.Flags().Changed("min-duration") {
				split.MinDuration = minDurationFlag
			}
			if cmd.Flags().Changed("skip-first") {
				split.SkipFirst = skipFirstFlag
			}
			if cmd.Flags().Changed("skip-last") {
				split.SkipLast = skipLastFlag
			}

			algorithm, err := similarity.ParseAlgorithm(split.Algorithm)
			if err != nil {
				return err
			}

			policy := pipeline.DefaultPolicy()
			if onSuccess, parseErr := pipeline.ParseDisposition(cfg.Unattended.OnSuccess); parseErr == nil {
				policy.OnSuccess = onSuccess
			}
			if deleteFlag {
				policy.OnSuccess = pipeline.DispositionDelete
			}

			session, err := openBatchSession(cmdCtx, args[0], args[1], policy)
			if err != nil {
				return err
			}
			defer session.Close()

			if session.resumed {
				fmt.Fprintln(cmd.OutOrStdout(), "Resuming previous batch from checkpoint.")
			}

			detect := func(ctx context.Context, prepared *media.PreparedData) ([]media.Range, error) {
				return similarity.DetectRanges(ctx, prepared.FrameIndex, similarity.Options{
					Algorithm: algorithm,
					Threshold: split.Threshold,
					MinFrames: similarity.MinFramesFor(split.MinDuration, prepared.Metadata.FrameRate),
					SkipFirst: split.SkipFirst,
					SkipLast:  split.SkipLast,
				})
			}

			report, err := pipeline.RunUnattended(cmd.Context(), session.controller, detect, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch finished: %d completed, %d skipped, %d failed.\n",
				report.Completed, report.Skipped, report.Errored)
			for _, skipped := range report.SkippedTasks {
				fmt.Fprintf(out, "  %s: %s\n", skipped.Name, skipped.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithmFlag, "algorithm", "", "Similarity algorithm: histogram, ssim, or frame_diff")
	cmd.Flags().Float64Var(&thresholdFlag, "threshold", 0, "Similarity score below which a scene cut is declared")
	cmd.Flags().Float64Var(&minDurationFlag, "min-duration", 0, "Minimum segment duration in seconds")
	cmd.Flags().BoolVar(&skipFirstFlag, "skip-first", false, "Drop the first detected segment")
	cmd.Flags().BoolVar(&skipLastFlag, "skip-last", false, "Drop the last detected segment")
	cmd.Flags().BoolVar(&deleteFlag, "delete-source", false, "Delete each source file after its segments are written")

	return cmd
}
