package services_test

import (
	"errors"
	"fmt"
	"testing"

	"framecut/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrPreparation, "prefetch", "prepare", "ffprobe failed", base)

	if !errors.Is(err, services.ErrPreparation) {
		t.Fatalf("expected preparation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "preparation error: prefetch: prepare: ffprobe failed: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToProcessing(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrProcessing) {
		t.Fatalf("expected processing marker, got %v", err)
	}
	if err.Error() != "processing error: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retriable     bool
		needsDecision bool
	}{
		{"preparation", services.Wrap(services.ErrPreparation, "media", "prepare", "", nil), true, false},
		{"persist", services.Wrap(services.ErrPersist, "checkpoint", "save", "", nil), true, false},
		{"incompatible", services.Wrap(services.ErrIncompatible, "media", "generate", "", nil), false, true},
		{"processing", services.Wrap(services.ErrProcessing, "media", "generate", "", nil), false, false},
		{"plain", fmt.Errorf("plain failure"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetriable(tc.err); got != tc.retriable {
				t.Fatalf("IsRetriable = %v, want %v", got, tc.retriable)
			}
			if got := services.NeedsDecision(tc.err); got != tc.needsDecision {
				t.Fatalf("NeedsDecision = %v, want %v", got, tc.needsDecision)
			}
		})
	}
}
