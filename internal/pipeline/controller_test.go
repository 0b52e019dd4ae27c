package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"framecut/internal/batch"
	"framecut/internal/media"
	"framecut/internal/pipeline"
	"framecut/internal/prefetch"
	"framecut/internal/services"
)

type fakePreparer struct {
	failing map[string]bool
}

func (f *fakePreparer) PrepareTask(ctx context.Context, path string, progress func(media.Progress)) (*media.PreparedData, error) {
	if f.failing[path] {
		return nil, errors.New("probe failed")
	}
	prepared := &media.PreparedData{
		Metadata: media.Metadata{Width: 1280, Height: 720, Duration: 10, FrameRate: 10, FrameCount: 100},
	}
	for i := 0; i < 100; i++ {
		prepared.FrameIndex = append(prepared.FrameIndex, media.FrameIndexEntry{
			FrameNumber:      i,
			TimestampSeconds: float64(i) / 10,
		})
	}
	return prepared, nil
}

type fakeGenerator struct {
	calls            []bool // force flag per call
	failWith         error
	incompatibleOnce bool
}

func (f *fakeGenerator) GenerateOutput(ctx context.Context, path string, prepared *media.PreparedData, ranges []media.Range, outputDir string, opts media.GenerateOptions) (string, error) {
	f.calls = append(f.calls, opts.Force)
	if f.incompatibleOnce && !opts.Force {
		return "", &media.IncompatibleError{Path: path, Detail: "resolution unknown"}
	}
	if f.failWith != nil {
		return "", f.failWith
	}
	return fmt.Sprintf("wrote %d segment(s)", len(ranges)), nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) DeleteSource(path string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, path)
	return nil
}

type fakeCheckpoint struct {
	cleared int
}

func (f *fakeCheckpoint) Clear() error {
	f.cleared++
	return nil
}

type harness struct {
	store      *batch.Store
	generator  *fakeGenerator
	remover    *fakeRemover
	checkpoint *fakeCheckpoint
	controller *pipeline.Controller
}

func newHarness(t *testing.T, preparer media.Preparer, paths ...string) *harness {
	t.Helper()
	return buildHarness(t, preparer, pipeline.DefaultPolicy(), paths)
}

func newHarnessWithPolicy(t *testing.T, policy pipeline.DispositionPolicy, paths ...string) *harness {
	t.Helper()
	return buildHarness(t, nil, policy, paths)
}

func buildHarness(t *testing.T, preparer media.Preparer, policy pipeline.DispositionPolicy, paths []string) *harness {
	t.Helper()
	store := batch.NewStore("/in", "/out", nil, nil)
	if err := store.Initialize(paths); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if preparer == nil {
		preparer = &fakePreparer{}
	}

	h := &harness{
		store:      store,
		generator:  &fakeGenerator{},
		remover:    &fakeRemover{},
		checkpoint: &fakeCheckpoint{},
	}
	controller, err := pipeline.NewController(pipeline.Deps{
		Store:      store,
		Prefetcher: prefetch.New(store, preparer, nil, nil),
		Generator:  h.generator,
		Remover:    h.remover,
		Checkpoint: h.checkpoint,
		Policy:     policy,
		OutputDir:  "/out",
		Window:     2,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	h.controller = controller
	return h
}

func editAndConfirm(t *testing.T, c *pipeline.Controller, start, end int) {
	t.Helper()
	if err := c.SelectFrame(start); err != nil {
		t.Fatalf("SelectFrame(%d): %v", start, err)
	}
	if err := c.SelectFrame(end); err != nil {
		t.Fatalf("SelectFrame(%d): %v", end, err)
	}
	if err := c.ConfirmRange(); err != nil {
		t.Fatalf("ConfirmRange: %v", err)
	}
}

func TestInteractiveHappyPath(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if c.State() != pipeline.StateEditing {
		t.Fatalf("state = %s, want editing", c.State())
	}

	editAndConfirm(t, c, 0, 10)
	message, err := c.Generate(ctx, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if message == "" {
		t.Fatal("expected result message")
	}
	if c.State() != pipeline.StateAwaitingDisposition {
		t.Fatalf("state = %s, want awaiting_disposition", c.State())
	}

	if err := c.ApplyDisposition(ctx, pipeline.DispositionKeep); err != nil {
		t.Fatalf("ApplyDisposition: %v", err)
	}
	if len(h.remover.removed) != 0 {
		t.Fatal("keep disposition deleted a source")
	}

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 5, 20)
	if _, err := c.Generate(ctx, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := c.ApplyDisposition(ctx, pipeline.DispositionDelete); err != nil {
		t.Fatalf("ApplyDisposition: %v", err)
	}
	if len(h.remover.removed) != 1 || h.remover.removed[0] != "/in/b.mp4" {
		t.Fatalf("removed = %v", h.remover.removed)
	}

	if err := c.NextTask(ctx); !errors.Is(err, pipeline.ErrFinished) {
		t.Fatalf("NextTask = %v, want ErrFinished", err)
	}
	report, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if report.Completed != 2 || report.Skipped != 0 || report.Errored != 0 {
		t.Fatalf("report = %+v", report)
	}
	if h.checkpoint.cleared != 1 {
		t.Fatalf("checkpoint cleared %d times, want 1", h.checkpoint.cleared)
	}
}

func TestGenerateRejectsEmptySelection(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if _, err := c.Generate(ctx, false); !errors.Is(err, pipeline.ErrEmptySelection) {
		t.Fatalf("Generate = %v, want ErrEmptySelection", err)
	}
	if c.State() != pipeline.StateEditing {
		t.Fatalf("state = %s after rejected generate, want editing", c.State())
	}
}

func TestSkipAndPostponeOnlyFromEditing(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.Skip(); !errors.Is(err, pipeline.ErrInvalidState) {
		t.Fatalf("Skip before editing = %v, want ErrInvalidState", err)
	}

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 0, 10)
	if _, err := c.Generate(ctx, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Generating is done, now AwaitingDisposition: no skip, no postpone.
	if err := c.Skip(); !errors.Is(err, pipeline.ErrInvalidState) {
		t.Fatalf("Skip in awaiting_disposition = %v, want ErrInvalidState", err)
	}
	if err := c.Postpone(); !errors.Is(err, pipeline.ErrInvalidState) {
		t.Fatalf("Postpone in awaiting_disposition = %v, want ErrInvalidState", err)
	}
}

func TestSkipMarksTaskAndReturnsToSelection(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if c.State() != pipeline.StateAwaitingSelection {
		t.Fatalf("state = %s, want awaiting_selection", c.State())
	}
	task, _ := h.store.TaskByPath("/in/a.mp4")
	if task.Status != batch.StatusSkipped {
		t.Fatalf("task status = %s, want skipped", task.Status)
	}
}

func TestIncompatibleInputStaysAtDecisionPoint(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4")
	h.generator.incompatibleOnce = true
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 0, 10)

	_, err := c.Generate(ctx, false)
	if !services.NeedsDecision(err) {
		t.Fatalf("Generate = %v, want incompatible classification", err)
	}
	if c.State() != pipeline.StateEditing {
		t.Fatalf("state = %s after incompatible, want editing", c.State())
	}
	task, _ := h.store.TaskByPath("/in/a.mp4")
	if task.Status != batch.StatusReady {
		t.Fatalf("task status = %s, want ready", task.Status)
	}

	// Confirmed selection survives for the forced retry.
	if _, err := c.Generate(ctx, true); err != nil {
		t.Fatalf("forced Generate: %v", err)
	}
	if got := h.generator.calls; len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("generator calls = %v, want [false true]", got)
	}
}

func TestGenerationFailureMarksErrorAndContinues(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")
	h.generator.failWith = errors.New("encoder exploded")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 0, 10)

	if _, err := c.Generate(ctx, false); err == nil {
		t.Fatal("expected generation failure")
	}
	if c.State() != pipeline.StateAwaitingSelection {
		t.Fatalf("state = %s, want awaiting_selection", c.State())
	}
	task, _ := h.store.TaskByPath("/in/a.mp4")
	if task.Status != batch.StatusError {
		t.Fatalf("task status = %s, want error", task.Status)
	}

	// The batch keeps moving.
	h.generator.failWith = nil
	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask after failure: %v", err)
	}
	task, _ = c.ActiveTask()
	if task.Path != "/in/b.mp4" {
		t.Fatalf("active = %s, want /in/b.mp4", task.Path)
	}
}

func TestDeleteFailureLeavesTaskCompleted(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4")
	h.remover.err = errors.New("read-only filesystem")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 0, 10)
	if _, err := c.Generate(ctx, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	err := c.ApplyDisposition(ctx, pipeline.DispositionDelete)
	if err == nil {
		t.Fatal("expected delete failure to surface")
	}
	task, _ := h.store.TaskByPath("/in/a.mp4")
	if task.Status != batch.StatusCompleted {
		t.Fatalf("task status = %s, want completed", task.Status)
	}
	if c.State() != pipeline.StateAwaitingSelection {
		t.Fatalf("state = %s, want awaiting_selection", c.State())
	}
}

func TestPreparationFailureSkipsTask(t *testing.T) {
	preparer := &fakePreparer{failing: map[string]bool{"/in/a.mp4": true}}
	h := newHarness(t, preparer, "/in/a.mp4", "/in/b.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	task, _ := c.ActiveTask()
	if task.Path != "/in/b.mp4" {
		t.Fatalf("active = %s, want /in/b.mp4", task.Path)
	}
	failed, _ := h.store.TaskByPath("/in/a.mp4")
	if failed.Status != batch.StatusError {
		t.Fatalf("failed task status = %s, want error", failed.Status)
	}
}

func TestSelectionsClearedOnTaskChange(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")
	c := h.controller
	ctx := context.Background()

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	editAndConfirm(t, c, 0, 10)
	if err := c.Postpone(); err != nil {
		t.Fatalf("Postpone: %v", err)
	}

	if err := c.NextTask(ctx); err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if got := c.Editor().Confirmed(); len(got) != 0 {
		t.Fatalf("selections leaked across tasks: %+v", got)
	}
}
