package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"framecut/internal/batch"
	"framecut/internal/checkpoint"
	"framecut/internal/media"
)

func sampleSnapshot(outputRoot string) batch.Snapshot {
	return batch.Snapshot{
		InputRoot:   "/in",
		OutputRoot:  outputRoot,
		ActiveIndex: 1,
		Tasks: []batch.TaskSnapshot{
			{Path: "/in/a.mp4", Name: "a", Status: batch.StatusCompleted},
			{
				Path:   "/in/b.mp4",
				Name:   "b",
				Status: batch.StatusPending,
				Prepared: &media.PreparedData{
					Metadata: media.Metadata{Width: 1920, Height: 1080, FrameCount: 240, FrameRate: 24, Duration: 10, Codec: "h264"},
					FrameIndex: []media.FrameIndexEntry{
						{FrameNumber: 0, TimestampSeconds: 0, PreviewRef: "/tmp/f0.jpg"},
					},
				},
			},
			{Path: "/in/c.mp4", Name: "c", Status: batch.StatusError, LastError: "encoder exploded"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	outputRoot := t.TempDir()
	persister := checkpoint.NewPersister(outputRoot, nil)

	want := sampleSnapshot(outputRoot)
	if err := persister.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := checkpoint.Load(outputRoot, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected checkpoint to be found")
	}
	if got.ActiveIndex != want.ActiveIndex || got.InputRoot != want.InputRoot {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Tasks) != len(want.Tasks) {
		t.Fatalf("task count = %d, want %d", len(got.Tasks), len(want.Tasks))
	}
	for i := range want.Tasks {
		if got.Tasks[i].Path != want.Tasks[i].Path || got.Tasks[i].Status != want.Tasks[i].Status {
			t.Fatalf("task %d mismatch: %+v", i, got.Tasks[i])
		}
	}
	if got.Tasks[2].LastError != "encoder exploded" {
		t.Fatalf("last error lost: %+v", got.Tasks[2])
	}
	prepared := got.Tasks[1].Prepared
	if prepared == nil || prepared.Metadata.FrameCount != 240 || len(prepared.FrameIndex) != 1 {
		t.Fatalf("prepared data lost: %+v", prepared)
	}
}

func TestLoadAbsentSidecar(t *testing.T) {
	_, found, err := checkpoint.Load(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("expected no checkpoint")
	}
}

func TestLoadMalformedSidecarReadsAsAbsent(t *testing.T) {
	outputRoot := t.TempDir()
	path := checkpoint.Path(outputRoot)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	_, found, err := checkpoint.Load(outputRoot, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("malformed sidecar should read as absent")
	}
}

func TestLoadUnknownStatusDegradesToPending(t *testing.T) {
	outputRoot := t.TempDir()
	body := `{
  "input_dir": "/in",
  "output_dir": "/out",
  "tasks": [{"path": "/in/a.mp4", "name": "a", "status": "transmogrified"}],
  "current_index": 0
}`
	if err := os.WriteFile(checkpoint.Path(outputRoot), []byte(body), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	snapshot, found, err := checkpoint.Load(outputRoot, nil)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if snapshot.Tasks[0].Status != batch.StatusPending {
		t.Fatalf("status = %s, want pending", snapshot.Tasks[0].Status)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	outputRoot := t.TempDir()
	persister := checkpoint.NewPersister(outputRoot, nil)

	if err := persister.Save(sampleSnapshot(outputRoot)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := persister.Save(sampleSnapshot(outputRoot)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestClearRemovesSidecar(t *testing.T) {
	outputRoot := t.TempDir()
	persister := checkpoint.NewPersister(outputRoot, nil)

	if err := persister.Save(sampleSnapshot(outputRoot)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := persister.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(checkpoint.Path(outputRoot)); !os.IsNotExist(err) {
		t.Fatalf("sidecar still present: %v", err)
	}
	if err := persister.Clear(); err != nil {
		t.Fatalf("Clear on missing sidecar: %v", err)
	}
}
