package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/services"
)

// SplitDetector proposes ranges for a prepared task. The auto command wires
// similarity.DetectRanges in here.
type SplitDetector func(ctx context.Context, prepared *media.PreparedData) ([]media.Range, error)

// RunUnattended drives the whole batch without supervision. Ranges come
// from the detector, the policy decides dispositions, and failures skip to
// the next task. Incompatible inputs get one forced retry, matching the
// re-encode path a user would choose interactively.
func RunUnattended(ctx context.Context, c *Controller, detect SplitDetector, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "unattended")

	for {
		if err := c.NextTask(ctx); err != nil {
			if errors.Is(err, ErrFinished) {
				return c.Finish()
			}
			return Report{}, err
		}

		task, _ := c.ActiveTask()
		ranges, err := detect(ctx, task.Prepared)
		if err != nil {
			if ctx.Err() != nil {
				return Report{}, err
			}
			logger.Warn("split detection failed, skipping task",
				logging.String(logging.FieldTaskName, task.Name),
				logging.Error(err))
			if failErr := c.Fail(err); failErr != nil {
				return Report{}, failErr
			}
			continue
		}

		confirmFailed := false
		for _, r := range ranges {
			if err := c.SelectFrame(r.Start); err == nil {
				err = c.SelectFrame(r.End)
			}
			if err == nil {
				err = c.ConfirmRange()
			}
			if err != nil {
				logger.Warn("detected range rejected, skipping task",
					logging.String(logging.FieldTaskName, task.Name),
					logging.Error(err))
				if failErr := c.Fail(err); failErr != nil {
					return Report{}, failErr
				}
				confirmFailed = true
				break
			}
		}
		if confirmFailed {
			continue
		}

		message, err := c.Generate(ctx, false)
		if err != nil && services.NeedsDecision(err) {
			logger.Info("input incompatible, retrying with re-encode",
				logging.String(logging.FieldTaskName, task.Name))
			message, err = c.Generate(ctx, true)
		}
		if err != nil {
			if ctx.Err() != nil {
				return Report{}, err
			}
			// Generate already marked the task and returned to selection.
			continue
		}

		logger.Info("task generated",
			logging.String(logging.FieldTaskName, task.Name),
			logging.String("result", message))

		if err := c.ApplyDisposition(ctx, c.deps.Policy.OnSuccess); err != nil {
			logger.Warn("disposition failed",
				logging.String(logging.FieldTaskName, task.Name),
				logging.Error(err))
		}
	}
}
