package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"framecut/internal/config"
	"framecut/internal/media"
	"framecut/internal/similarity"
)

func newRecutCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		algorithmFlag   string
		thresholdFlag   float64
		minDurationFlag float64
		shuffleFlag     bool
		endingFlag      string
	)

	cmd := &cobra.Command{
		Use:   "recut INPUT.mp4 OUTPUT_DIR",
		Short: "Drop a file's ending scene and rebuild it",
		Long: `Splits INPUT.mp4 at scene cuts, discards the final segment, and joins the
rest back into one file in OUTPUT_DIR. Segments can be shuffled, and a
replacement ending clip can be appended.`,
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
			algorithm, err := similarity.ParseAlgorithm(split.Algorithm)
			if err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input file: %w", err)
			}
			outputDir, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			ending := endingFlag
			if ending != "" {
				if ending, err = config.ExpandPath(ending); err != nil {
					return fmt.Errorf("resolve ending clip: %w", err)
				}
				if _, err := os.Stat(ending); err != nil {
					return fmt.Errorf("ending clip: %w", err)
				}
			}

			ctx := cmd.Context()
			processor := media.NewProcessor(cfg, logger)
			progress := newProgressPrinter(os.Stdout)
			progress.focus(input, "preparing")
			prepared, err := processor.PrepareTask(ctx, input, progress.handle)
			progress.blur()
			if err != nil {
				return err
			}

			ranges, err := similarity.DetectRanges(ctx, prepared.FrameIndex, similarity.Options{
				Algorithm: algorithm,
				Threshold: split.Threshold,
				MinFrames: similarity.MinFramesFor(split.MinDuration, prepared.Metadata.FrameRate),
				SkipLast:  true,
			})
			if err != nil {
				return err
			}

			segmentDir, err := os.MkdirTemp(cfg.Paths.ScratchDir, "recut_*")
			if err != nil {
				return fmt.Errorf("create segment directory: %w", err)
			}
			defer os.RemoveAll(segmentDir)

			opts := media.GenerateOptions{
				CRF:          cfg.Generate.CRF,
				Preset:       cfg.Generate.Preset,
				AudioBitrate: cfg.Generate.AudioBitrate,
			}
			segments, err := processor.CutRanges(ctx, input, prepared, ranges, segmentDir, opts)
			if err != nil {
				return err
			}
			if shuffleFlag {
				rng := rand.New(rand.NewSource(time.Now().UnixNano()))
				rng.Shuffle(len(segments), func(i, j int) {
					segments[i], segments[j] = segments[j], segments[i]
				})
			}
			if ending != "" {
				segments = append(segments, ending)
			}

			stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			target := filepath.Join(outputDir, fmt.Sprintf("%s_recut.mp4", stem))
			message, err := processor.ConcatSources(ctx, segments, target, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithmFlag, "algorithm", "", "Similarity algorithm: histogram, ssim, or frame_diff")
	cmd.Flags().Float64Var(&thresholdFlag, "threshold", 0, "Similarity score below which a scene cut is declared")
	cmd.Flags().Float64Var(&minDurationFlag, "min-duration", 0, "Minimum segment duration in seconds")
	cmd.Flags().BoolVar(&shuffleFlag, "shuffle", false, "Shuffle the kept segments before joining")
	cmd.Flags().StringVar(&endingFlag, "ending", "", "Clip appended as the new ending")

	return cmd
}
