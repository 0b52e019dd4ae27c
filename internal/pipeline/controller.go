package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"framecut/internal/batch"
	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/prefetch"
	"framecut/internal/segments"
	"framecut/internal/services"
)

// State is the controller's user-visible phase.
type State string

const (
	StateAwaitingSelection   State = "awaiting_selection"
	StateEditing             State = "editing"
	StateGenerating          State = "generating"
	StateAwaitingDisposition State = "awaiting_disposition"
	StateFinished            State = "finished"
)

var (
	// ErrEmptySelection rejects generating with no confirmed ranges.
	ErrEmptySelection = errors.New("pipeline: no confirmed ranges to generate")
	// ErrInvalidState rejects a command outside its state.
	ErrInvalidState = errors.New("pipeline: command not valid in current state")
	// ErrFinished is returned by NextTask once the batch is done.
	ErrFinished = errors.New("pipeline: batch finished")
)

// Checkpointer is the slice of the persister the controller needs.
type Checkpointer interface {
	Clear() error
}

// Forgetter drops cached prepared data for deleted sources.
type Forgetter interface {
	Forget(ctx context.Context, path string) error
}

// Deps wires the controller's collaborators.
type Deps struct {
	Store      *batch.Store
	Prefetcher *prefetch.Prefetcher
	Generator  media.Generator
	Remover    media.Remover
	Checkpoint Checkpointer
	Cache      Forgetter
	Policy     DispositionPolicy
	Generate   media.GenerateOptions
	OutputDir  string
	Window     int
	Logger     *slog.Logger
}

// Report summarizes a finished batch.
type Report struct {
	Completed    int
	Skipped      int
	Errored      int
	SkippedTasks []batch.SkippedTask
}

// Controller is the single owner of pipeline state transitions.
type Controller struct {
	deps   Deps
	logger *slog.Logger

	state       State
	editor      *segments.Editor
	active      batch.Task
	correlation string
}

// NewController builds a controller in AwaitingSelection.
func NewController(deps Deps) (*Controller, error) {
	if deps.Store == nil || deps.Prefetcher == nil || deps.Generator == nil || deps.Remover == nil {
		return nil, errors.New("pipeline: controller requires store, prefetcher, generator, and remover")
	}
	if deps.Window < 1 {
		deps.Window = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		state:  StateAwaitingSelection,
	}, nil
}

// State returns the current phase.
func (c *Controller) State() State {
	return c.state
}

// ActiveTask returns the task being edited.
func (c *Controller) ActiveTask() (batch.Task, bool) {
	if c.state == StateAwaitingSelection || c.state == StateFinished {
		return batch.Task{}, false
	}
	task, ok := c.deps.Store.TaskByPath(c.active.Path)
	if !ok {
		return c.active, true
	}
	return task, true
}

// Editor exposes the segment editor for the active task.
func (c *Controller) Editor() *segments.Editor {
	return c.editor
}

// NextTask advances to the next editable task and enters Editing. Tasks
// whose preparation fails even after the synchronous retry are marked Error
// and skipped; the batch keeps moving. ErrFinished reports the end of the
// batch.
func (c *Controller) NextTask(ctx context.Context) error {
	if c.state != StateAwaitingSelection {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}

	for {
		task, ok := c.deps.Store.Advance()
		if !ok {
			c.finish()
			return ErrFinished
		}

		c.correlation = uuid.NewString()
		taskLogger := c.logger.With(
			logging.String(logging.FieldTaskName, task.Name),
			logging.String(logging.FieldCorrelationID, c.correlation))

		prepared := task.Prepared
		if prepared == nil {
			var err error
			prepared, err = c.deps.Prefetcher.Await(ctx, task.Path)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				taskLogger.Warn("preparation failed, skipping task", logging.Error(err))
				if markErr := c.deps.Store.MarkActive(batch.StatusError, err); markErr != nil {
					return markErr
				}
				continue
			}
		}

		c.active = task
		c.editor = segments.NewEditor(prepared.Metadata.FrameCount)
		c.state = StateEditing
		c.deps.Prefetcher.Arm(ctx, c.deps.Window)

		taskLogger.Info("task ready for editing",
			logging.Int("frame_count", prepared.Metadata.FrameCount),
			logging.String(logging.FieldState, string(c.state)))
		return nil
	}
}

// SelectFrame forwards to the active editor.
func (c *Controller) SelectFrame(n int) error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	return c.editor.SelectFrame(n)
}

// ConfirmRange forwards to the active editor.
func (c *Controller) ConfirmRange() error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	return c.editor.ConfirmRange()
}

// RemoveRange forwards to the active editor.
func (c *Controller) RemoveRange(i int) error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	return c.editor.RemoveRange(i)
}

// Skip marks the active task Skipped and returns to selection. Only valid
// while Editing; a generating task cannot be skipped.
func (c *Controller) Skip() error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if err := c.deps.Store.MarkActive(batch.StatusSkipped, nil); err != nil {
		return err
	}
	c.leaveTask()
	return nil
}

// Postpone moves the active task to the end of the batch and returns to
// selection. Only valid while Editing.
func (c *Controller) Postpone() error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if err := c.deps.Store.PostponeActive(); err != nil {
		return err
	}
	c.leaveTask()
	return nil
}

// Fail marks the active task Error with the given cause and returns to
// selection. Unattended runs use it when split detection fails.
func (c *Controller) Fail(cause error) error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if err := c.deps.Store.MarkActive(batch.StatusError, cause); err != nil {
		return err
	}
	c.leaveTask()
	return nil
}

// Generate cuts the confirmed ranges. On success the controller moves to
// AwaitingDisposition. An incompatible input keeps the controller in
// Editing so the user can retry with force or skip; any other failure marks
// the task Error and returns to selection so the batch continues.
func (c *Controller) Generate(ctx context.Context, force bool) (string, error) {
	if c.state != StateEditing {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	ranges := c.editor.Confirmed()
	if len(ranges) == 0 {
		return "", ErrEmptySelection
	}

	task, ok := c.deps.Store.TaskByPath(c.active.Path)
	if !ok || task.Prepared == nil {
		return "", services.Wrap(services.ErrProcessing, "pipeline", "generate", "active task lost its prepared data", nil)
	}

	if err := c.deps.Store.MarkActive(batch.StatusProcessing, nil); err != nil {
		return "", err
	}
	c.state = StateGenerating

	opts := c.deps.Generate
	opts.Force = force
	message, err := c.deps.Generator.GenerateOutput(ctx, task.Path, task.Prepared, ranges, c.deps.OutputDir, opts)
	if err != nil {
		if services.NeedsDecision(err) && !force {
			// Stay at the decision point. The task returns to Ready so a
			// forced retry or a skip are both still possible.
			if markErr := c.deps.Store.MarkActive(batch.StatusReady, nil); markErr != nil {
				return "", markErr
			}
			c.state = StateEditing
			return "", err
		}
		if markErr := c.deps.Store.MarkActive(batch.StatusError, err); markErr != nil {
			return "", markErr
		}
		c.logger.Warn("generation failed, continuing batch",
			logging.String(logging.FieldTaskName, task.Name),
			logging.Error(err))
		c.leaveTask()
		return "", err
	}

	c.state = StateAwaitingDisposition
	return message, nil
}

// ApplyDisposition completes the active task and applies the keep or delete
// choice. A failed source delete leaves the task Completed and surfaces the
// error; either way the controller returns to selection.
func (c *Controller) ApplyDisposition(ctx context.Context, disposition Disposition) error {
	if c.state != StateAwaitingDisposition {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}

	if err := c.deps.Store.MarkActive(batch.StatusCompleted, nil); err != nil {
		return err
	}

	var deleteErr error
	if disposition == DispositionDelete {
		if err := c.deps.Remover.DeleteSource(c.active.Path); err != nil {
			deleteErr = err
			c.logger.Warn("source delete failed, task stays completed",
				logging.String(logging.FieldTaskName, c.active.Name),
				logging.Error(err))
		} else if c.deps.Cache != nil {
			if err := c.deps.Cache.Forget(ctx, c.active.Path); err != nil {
				c.logger.Debug("cache forget failed", logging.Error(err))
			}
		}
	}

	c.leaveTask()
	return deleteErr
}

// Finish reports the batch summary. Valid once Finished.
func (c *Controller) Finish() (Report, error) {
	if c.state != StateFinished {
		return Report{}, fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	counts := c.deps.Store.Counts()
	return Report{
		Completed:    counts.Completed,
		Skipped:      counts.Skipped,
		Errored:      counts.Errored,
		SkippedTasks: c.deps.Store.SkippedWithReason(),
	}, nil
}

// leaveTask clears per-task state and returns to selection. Selections are
// transient and never survive a task change.
func (c *Controller) leaveTask() {
	c.editor = nil
	c.active = batch.Task{}
	c.correlation = ""
	c.state = StateAwaitingSelection
}

func (c *Controller) finish() {
	c.leaveTask()
	c.state = StateFinished
	if c.deps.Checkpoint != nil {
		if err := c.deps.Checkpoint.Clear(); err != nil {
			c.logger.Warn("failed to clear checkpoint", logging.Error(err))
		}
	}
	counts := c.deps.Store.Counts()
	c.logger.Info("batch finished",
		logging.Int("completed", counts.Completed),
		logging.Int("skipped", counts.Skipped),
		logging.Int("errored", counts.Errored))
}
