package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"framecut/internal/config"
	"framecut/internal/drawpool"
	"framecut/internal/media"
)

func newConcatCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		countMinFlag int
		countMaxFlag int
		runsFlag     int
		endingFlag   string
	)

	cmd := &cobra.Command{
		Use:   "concat INPUT_DIR OUTPUT_DIR",
		Short: "Join random clips from a folder into new files",
		Long: `Draws clips from INPUT_DIR without replacement, scales them to a common
resolution, and joins each draw into one re-encoded MP4 in OUTPUT_DIR. The
pool refills once every clip has been used, so repeated runs cycle through
the whole folder before any clip repeats.`,
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

			countMin, countMax := countMinFlag, countMaxFlag
			if countMax == 0 {
				countMax = countMin
			}
			if countMin < 1 || countMax < countMin {
				return fmt.Errorf("clip count range %d..%d is not usable", countMin, countMax)
			}
			if runsFlag < 1 {
				return fmt.Errorf("runs must be at least 1, got %d", runsFlag)
			}

			inputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
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

			processor := media.NewProcessor(cfg, logger)
			files, err := processor.ListMediaFiles(inputDir)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			pool := drawpool.New(files, rng)
			stamp := time.Now().Format("20060102_150405")
			opts := media.GenerateOptions{
				CRF:          cfg.Generate.CRF,
				Preset:       cfg.Generate.Preset,
				AudioBitrate: cfg.Generate.AudioBitrate,
			}

			out := cmd.OutOrStdout()
			for run := 1; run <= runsFlag; run++ {
				count := countMin
				if countMax > countMin {
					count = countMin + rng.Intn(countMax-countMin+1)
				}
				clips := pool.Draw(count)
				if ending != "" {
					clips = append(clips, ending)
				}

				name := fmt.Sprintf("output_%s.mp4", stamp)
				if runsFlag > 1 {
					name = fmt.Sprintf("output_%s_%d.mp4", stamp, run)
				}
				message, err := processor.ConcatSources(cmd.Context(), clips, filepath.Join(outputDir, name), opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d/%d: %s\n", run, runsFlag, message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&countMinFlag, "count-min", 2, "Fewest clips to draw per output")
	cmd.Flags().IntVar(&countMaxFlag, "count-max", 0, "Most clips to draw per output (0 means same as --count-min)")
	cmd.Flags().IntVar(&runsFlag, "runs", 1, "Number of output files to produce")
	cmd.Flags().StringVar(&endingFlag, "ending", "", "Clip appended to the end of every output")

	return cmd
}
