package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"framecut/internal/pipeline"
	"framecut/internal/services"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run INPUT_DIR OUTPUT_DIR",
		Short: "Edit a folder of MP4 files interactively",
		Long: `Walks INPUT_DIR for .mp4 files and steps through them one at a time.
For each file, select frames to grow a range, confirm ranges, and generate
output segments into OUTPUT_DIR. Progress is checkpointed after every
change, so an interrupted batch resumes where it left off.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			onSuccess, err := pipeline.ParseDisposition(cfg.Unattended.OnSuccess)
			if err != nil {
				return err
			}
			policy := pipeline.DispositionPolicy{
				OnSuccess: onSuccess,
				OnFailure: pipeline.FailureSkipAndContinue,
			}

			session, err := openBatchSession(cmdCtx, args[0], args[1], policy)
			if err != nil {
				return err
			}
			defer session.Close()

			if session.resumed {
				fmt.Fprintln(cmd.OutOrStdout(), "Resuming previous batch from checkpoint.")
			}
			return runInteractive(cmd, session)
		},
	}
	return cmd
}

func runInteractive(cmd *cobra.Command, session *batchSession) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	controller := session.controller

	for {
		switch controller.State() {
		case pipeline.StateAwaitingSelection:
			if task, ok := nextPath(session); ok {
				session.progress.focus(task, "preparing")
			}
			err := controller.NextTask(ctx)
			session.progress.blur()
			if errors.Is(err, pipeline.ErrFinished) {
				return printReport(out, controller)
			}
			if err != nil {
				return err
			}
			printTaskBanner(out, session)

		case pipeline.StateEditing:
			fmt.Fprint(out, "framecut> ")
			line, ok := readLine(scanner)
			if !ok {
				return nil
			}
			quit, err := dispatchEditing(ctx, out, session, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}

		case pipeline.StateAwaitingDisposition:
			fmt.Fprint(out, "Segments written. Keep or delete the source? [K/d] ")
			line, ok := readLine(scanner)
			if !ok {
				return nil
			}
			disposition := pipeline.DispositionKeep
			answer := strings.ToLower(strings.TrimSpace(line))
			if answer == "d" || answer == "delete" {
				disposition = pipeline.DispositionDelete
			}
			if err := controller.ApplyDisposition(ctx, disposition); err != nil {
				fmt.Fprintf(out, "warning: %v\n", err)
			}

		case pipeline.StateFinished:
			return printReport(out, controller)

		default:
			return fmt.Errorf("unexpected pipeline state %s", controller.State())
		}
	}
}

// nextPath peeks at the task the next Advance will pick so the progress
// bar can follow its preparation.
func nextPath(session *batchSession) (string, bool) {
	for _, task := range session.store.Tasks()[session.store.ActiveIndex():] {
		if !task.IsTerminal() {
			return task.Path, true
		}
	}
	return "", false
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// dispatchEditing handles one editing command. The returned bool reports a
// quit request.
func dispatchEditing(ctx context.Context, out io.Writer, session *batchSession, line string) (bool, error) {
	controller := session.controller
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "select", "s":
		if len(fields) != 2 {
			return false, errors.New("usage: select FRAME")
		}
		frame, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("bad frame number %q", fields[1])
		}
		if err := controller.SelectFrame(frame); err != nil {
			return false, err
		}
		if open, ok := controller.Editor().OpenRange(); ok {
			fmt.Fprintf(out, "open range [%d, %d]\n", open.Start, open.End)
		}
		return false, nil

	case "confirm", "c":
		if err := controller.ConfirmRange(); err != nil {
			return false, err
		}
		printRanges(out, session)
		return false, nil

	case "list", "l":
		printRanges(out, session)
		return false, nil

	case "clear":
		controller.Editor().AbandonOpenRange()
		fmt.Fprintln(out, "open range discarded")
		return false, nil

	case "remove", "rm":
		if len(fields) != 2 {
			return false, errors.New("usage: remove INDEX")
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("bad range index %q", fields[1])
		}
		if err := controller.RemoveRange(index - 1); err != nil {
			return false, err
		}
		printRanges(out, session)
		return false, nil

	case "generate", "g":
		force := len(fields) == 2 && fields[1] == "force"
		session.progress.focus(activePath(session), "generating")
		message, err := controller.Generate(ctx, force)
		session.progress.blur()
		if err != nil {
			if services.NeedsDecision(err) {
				fmt.Fprintf(out, "%v\n", err)
				fmt.Fprintln(out, "retry with 'generate force' to re-encode, or 'skip' to move on")
				return false, nil
			}
			return false, err
		}
		fmt.Fprintln(out, message)
		return false, nil

	case "skip":
		if err := controller.Skip(); err != nil {
			return false, err
		}
		return false, nil

	case "postpone":
		if err := controller.Postpone(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "postponed to the end of the batch")
		return false, nil

	case "help", "?":
		fmt.Fprintln(out, "  select N       grow the open range to include frame N")
		fmt.Fprintln(out, "  confirm        confirm the open range")
		fmt.Fprintln(out, "  list           show confirmed ranges")
		fmt.Fprintln(out, "  clear          discard the open range")
		fmt.Fprintln(out, "  remove N       drop confirmed range N")
		fmt.Fprintln(out, "  generate       cut confirmed ranges (add 'force' to re-encode)")
		fmt.Fprintln(out, "  skip           skip this file")
		fmt.Fprintln(out, "  postpone       move this file to the end of the batch")
		fmt.Fprintln(out, "  quit           stop; progress is checkpointed")
		return false, nil

	case "quit", "q", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
}

func activePath(session *batchSession) string {
	task, ok := session.controller.ActiveTask()
	if !ok {
		return ""
	}
	return task.Path
}

func printTaskBanner(out io.Writer, session *batchSession) {
	controller := session.controller
	task, ok := controller.ActiveTask()
	if !ok || task.Prepared == nil {
		return
	}
	meta := task.Prepared.Metadata
	fmt.Fprintf(out, "\nEditing %s\n", task.Name)
	fmt.Fprintf(out, "  %dx%d %s, %.3f fps, %s, %d frames\n",
		meta.Width, meta.Height, meta.Codec, meta.FrameRate,
		formatDuration(meta.Duration), meta.FrameCount)
	fmt.Fprintln(out, "  commands: select N, confirm, list, remove N, generate [force], skip, postpone, quit")
}

func printRanges(out io.Writer, session *batchSession) {
	ranges := session.controller.Editor().Confirmed()
	if len(ranges) == 0 {
		fmt.Fprintln(out, "no confirmed ranges")
		return
	}
	rows := make([][]string, 0, len(ranges))
	for i, r := range ranges {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Start),
			strconv.Itoa(r.End),
			strconv.Itoa(r.End - r.Start + 1),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Frames"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
}

func printReport(out io.Writer, controller *pipeline.Controller) error {
	report, err := controller.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBatch finished: %d completed, %d skipped, %d failed.\n",
		report.Completed, report.Skipped, report.Errored)
	for _, skipped := range report.SkippedTasks {
		fmt.Fprintf(out, "  %s: %s\n", skipped.Name, skipped.Reason)
	}
	return nil
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
