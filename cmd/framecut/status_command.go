package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"framecut/internal/batch"
	"framecut/internal/checkpoint"
	"framecut/internal/config"
	"framecut/internal/logging"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status OUTPUT_DIR",
		Short: "Show the checkpoint state of a batch",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			snapshot, found, err := checkpoint.Load(outputDir, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintln(out, "No batch in progress.")
				return nil
			}

			rows := make([][]string, 0, len(snapshot.Tasks))
			var completed, skipped, errored int
			for i, task := range snapshot.Tasks {
				switch task.Status {
				case batch.StatusCompleted:
					completed++
				case batch.StatusSkipped:
					skipped++
				case batch.StatusError:
					errored++
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					task.Name,
					string(task.Status),
					formatSize(task.Path),
					task.LastError,
				})
			}

			fmt.Fprintf(out, "Batch %s -> %s\n", snapshot.InputRoot, snapshot.OutputRoot)
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "Status", "Size", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d of %d done (%d completed, %d skipped, %d failed), next index %d\n",
				completed+skipped+errored, len(snapshot.Tasks),
				completed, skipped, errored, snapshot.ActiveIndex)
			return nil
		},
	}
	return cmd
}

// formatSize renders the source file size, or a dash when the file is gone.
func formatSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}
