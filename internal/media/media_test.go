package media_test

import (
	"errors"
	"path/filepath"
	"testing"

	"framecut/internal/media"
	"framecut/internal/services"
	"framecut/internal/testsupport"
)

func TestListMediaFilesSortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "b.mp4"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "a.mp4"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "C.MP4"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "clip.mkv"), 16)

	files, err := media.ListMediaFiles(root, 1)
	if err != nil {
		t.Fatalf("ListMediaFiles: %v", err)
	}
	want := []string{
		filepath.Join(root, "C.MP4"),
		filepath.Join(root, "a.mp4"),
		filepath.Join(root, "b.mp4"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files = %v, want %v", files, want)
		}
	}
}

func TestListMediaFilesDepthLimit(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "top.mp4"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "season1", "nested.mp4"), 16)
	testsupport.WriteFile(t, filepath.Join(root, "season1", "extras", "deep.mp4"), 16)

	shallow, err := media.ListMediaFiles(root, 1)
	if err != nil {
		t.Fatalf("ListMediaFiles depth 1: %v", err)
	}
	if len(shallow) != 1 || filepath.Base(shallow[0]) != "top.mp4" {
		t.Fatalf("depth 1 files = %v", shallow)
	}

	deeper, err := media.ListMediaFiles(root, 2)
	if err != nil {
		t.Fatalf("ListMediaFiles depth 2: %v", err)
	}
	if len(deeper) != 2 {
		t.Fatalf("depth 2 files = %v", deeper)
	}
}

func TestListMediaFilesUnreadableRoot(t *testing.T) {
	_, err := media.ListMediaFiles(filepath.Join(t.TempDir(), "missing"), 1)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("ListMediaFiles = %v, want ErrIO", err)
	}
}

func indexedData(duration float64, timestamps ...float64) *media.PreparedData {
	prepared := &media.PreparedData{
		Metadata: media.Metadata{Width: 1280, Height: 720, Duration: duration, FrameCount: len(timestamps)},
	}
	for i, ts := range timestamps {
		prepared.FrameIndex = append(prepared.FrameIndex, media.FrameIndexEntry{FrameNumber: i, TimestampSeconds: ts})
	}
	return prepared
}

func TestCutWindowUsesNextFrameBoundary(t *testing.T) {
	prepared := indexedData(2.0, 0, 0.5, 1.0, 1.5)

	start, end, err := media.CutWindow(prepared, media.Range{Start: 1, End: 2})
	if err != nil {
		t.Fatalf("CutWindow: %v", err)
	}
	if start != 0.5 || end != 1.5 {
		t.Fatalf("window = [%g, %g], want [0.5, 1.5]", start, end)
	}
}

func TestCutWindowFinalFrameUsesDuration(t *testing.T) {
	prepared := indexedData(2.0, 0, 0.5, 1.0, 1.5)

	start, end, err := media.CutWindow(prepared, media.Range{Start: 2, End: 3})
	if err != nil {
		t.Fatalf("CutWindow: %v", err)
	}
	if start != 1.0 || end != 2.0 {
		t.Fatalf("window = [%g, %g], want [1.0, 2.0]", start, end)
	}
}

func TestCutWindowRejectsBadRanges(t *testing.T) {
	prepared := indexedData(2.0, 0, 0.5, 1.0, 1.5)

	cases := []media.Range{
		{Start: -1, End: 2},
		{Start: 2, End: 4},
		{Start: 2, End: 2},
		{Start: 3, End: 1},
	}
	for _, r := range cases {
		if _, _, err := media.CutWindow(prepared, r); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("CutWindow(%+v) = %v, want ErrValidation", r, err)
		}
	}
}

func TestCheckCompatibility(t *testing.T) {
	good := media.Metadata{Width: 1920, Height: 1080, Duration: 10}
	if err := media.CheckCompatibility(good); err != nil {
		t.Fatalf("CheckCompatibility(good) = %v", err)
	}

	bad := media.Metadata{Duration: 10}
	err := media.CheckCompatibility(bad)
	if err == nil {
		t.Fatal("expected incompatibility")
	}
	if !errors.Is(err, services.ErrIncompatible) {
		t.Fatalf("error %v not classified as incompatible", err)
	}
	var incompatible *media.IncompatibleError
	if !errors.As(err, &incompatible) || incompatible.Detail == "" {
		t.Fatalf("error %v missing detail", err)
	}
}
