package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"framecut/internal/batch"
	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/services"
)

// FileName is the sidecar written next to generated outputs.
const FileName = ".framecut_progress.json"

// Path returns the sidecar location for an output directory.
func Path(outputRoot string) string {
	return filepath.Join(outputRoot, FileName)
}

type taskRecord struct {
	Path      string              `json:"path"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	LastError string              `json:"last_error,omitempty"`
	Prepared  *media.PreparedData `json:"prepared,omitempty"`
}

type document struct {
	InputDir     string       `json:"input_dir"`
	OutputDir    string       `json:"output_dir"`
	Tasks        []taskRecord `json:"tasks"`
	CurrentIndex int          `json:"current_index"`
}

// Persister writes batch snapshots to the sidecar. It implements batch.Saver.
type Persister struct {
	path   string
	logger *slog.Logger
}

// NewPersister builds a persister for the given output directory.
func NewPersister(outputRoot string, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Persister{
		path:   Path(outputRoot),
		logger: logging.NewComponentLogger(logger, "checkpoint"),
	}
}

// Save serializes the snapshot and atomically replaces the sidecar.
func (p *Persister) Save(snapshot batch.Snapshot) error {
	doc := document{
		InputDir:     snapshot.InputRoot,
		OutputDir:    snapshot.OutputRoot,
		CurrentIndex: snapshot.ActiveIndex,
		Tasks:        make([]taskRecord, 0, len(snapshot.Tasks)),
	}
	for _, task := range snapshot.Tasks {
		doc.Tasks = append(doc.Tasks, taskRecord{
			Path:      task.Path,
			Name:      task.Name,
			Status:    string(task.Status),
			LastError: task.LastError,
			Prepared:  task.Prepared,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersist, "checkpoint", "save", "marshal progress", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return services.Wrap(services.ErrPersist, "checkpoint", "save", "create output directory", err)
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrPersist, "checkpoint", "save", "write temp file", err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersist, "checkpoint", "save", "replace sidecar", err)
	}
	return nil
}

// Clear removes the sidecar. Finishing a batch calls this so a later run of
// the same directories starts fresh.
func (p *Persister) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrPersist, "checkpoint", "clear", "remove sidecar", err)
	}
	return nil
}

// Load reads a previously saved snapshot from outputRoot. A missing sidecar
// returns found=false. A malformed sidecar is logged and also reads as
// absent so a corrupt file never blocks a fresh start.
func Load(outputRoot string, logger *slog.Logger) (batch.Snapshot, bool, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "checkpoint")

	path := Path(outputRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return batch.Snapshot{}, false, nil
		}
		return batch.Snapshot{}, false, services.Wrap(services.ErrIO, "checkpoint", "load", fmt.Sprintf("read %s", path), err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("ignoring malformed progress sidecar",
			logging.String("path", path),
			logging.Error(err))
		return batch.Snapshot{}, false, nil
	}
	if len(doc.Tasks) == 0 {
		logger.Warn("ignoring empty progress sidecar", logging.String("path", path))
		return batch.Snapshot{}, false, nil
	}

	snapshot := batch.Snapshot{
		InputRoot:   doc.InputDir,
		OutputRoot:  doc.OutputDir,
		ActiveIndex: doc.CurrentIndex,
		Tasks:       make([]batch.TaskSnapshot, 0, len(doc.Tasks)),
	}
	for _, record := range doc.Tasks {
		status, ok := batch.ParseStatus(record.Status)
		if !ok {
			status = batch.StatusPending
		}
		snapshot.Tasks = append(snapshot.Tasks, batch.TaskSnapshot{
			Path:      record.Path,
			Name:      record.Name,
			Status:    status,
			LastError: record.LastError,
			Prepared:  record.Prepared,
		})
	}
	return snapshot, true, nil
}
