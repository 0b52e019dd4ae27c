package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"framecut/internal/media"
	"framecut/internal/pipeline"
)

func evenSplit(ctx context.Context, prepared *media.PreparedData) ([]media.Range, error) {
	half := prepared.Metadata.FrameCount / 2
	return []media.Range{
		{Start: 0, End: half - 1},
		{Start: half, End: prepared.Metadata.FrameCount - 1},
	}, nil
}

func TestRunUnattendedProcessesWholeBatch(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4", "/in/c.mp4")

	report, err := pipeline.RunUnattended(context.Background(), h.controller, evenSplit, nil)
	if err != nil {
		t.Fatalf("RunUnattended: %v", err)
	}
	if report.Completed != 3 || report.Errored != 0 {
		t.Fatalf("report = %+v", report)
	}
	// Default policy keeps sources.
	if len(h.remover.removed) != 0 {
		t.Fatalf("removed = %v with keep policy", h.remover.removed)
	}
	if h.checkpoint.cleared != 1 {
		t.Fatalf("checkpoint cleared %d times, want 1", h.checkpoint.cleared)
	}
}

func TestRunUnattendedRetriesIncompatibleWithForce(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4")
	h.generator.incompatibleOnce = true

	report, err := pipeline.RunUnattended(context.Background(), h.controller, evenSplit, nil)
	if err != nil {
		t.Fatalf("RunUnattended: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("report = %+v", report)
	}
	calls := h.generator.calls
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Fatalf("generator calls = %v, want plain then forced", calls)
	}
}

func TestRunUnattendedSkipsDetectionFailures(t *testing.T) {
	h := newHarness(t, nil, "/in/a.mp4", "/in/b.mp4")

	boom := errors.New("no scene cuts found")
	detect := func(ctx context.Context, prepared *media.PreparedData) ([]media.Range, error) {
		task, _ := h.controller.ActiveTask()
		if task.Path == "/in/a.mp4" {
			return nil, boom
		}
		return evenSplit(ctx, prepared)
	}

	report, err := pipeline.RunUnattended(context.Background(), h.controller, detect, nil)
	if err != nil {
		t.Fatalf("RunUnattended: %v", err)
	}
	if report.Completed != 1 || report.Errored != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.SkippedTasks) != 1 || report.SkippedTasks[0].Path != "/in/a.mp4" {
		t.Fatalf("skipped tasks = %+v", report.SkippedTasks)
	}
}

func TestRunUnattendedDeletePolicy(t *testing.T) {
	h := newHarnessWithPolicy(t, pipeline.DispositionPolicy{
		OnSuccess: pipeline.DispositionDelete,
		OnFailure: pipeline.FailureSkipAndContinue,
	}, "/in/a.mp4")

	report, err := pipeline.RunUnattended(context.Background(), h.controller, evenSplit, nil)
	if err != nil {
		t.Fatalf("RunUnattended: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(h.remover.removed) != 1 {
		t.Fatalf("removed = %v, want one source", h.remover.removed)
	}
}
