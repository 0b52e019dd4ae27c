package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/services"
)

// ErrEmptyBatch is returned when initialization finds no media files.
var ErrEmptyBatch = errors.New("batch: no media files to process")

// ErrNoActiveTask is returned by mutations that require an active task.
var ErrNoActiveTask = errors.New("batch: no active task")

// Counts summarizes how the batch finished.
type Counts struct {
	Completed int
	Skipped   int
	Errored   int
}

// Store holds the ordered task list and active index for one batch session.
type Store struct {
	mu          sync.Mutex
	inputRoot   string
	outputRoot  string
	tasks       []*Task
	activeIndex int
	skipped     []SkippedTask
	saver       Saver
	logger      *slog.Logger
}

// NewStore builds an empty store. The saver may be nil for tests that do not
// care about persistence.
func NewStore(inputRoot, outputRoot string, saver Saver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		inputRoot:  inputRoot,
		outputRoot: outputRoot,
		saver:      saver,
		logger:     logging.NewComponentLogger(logger, "batch"),
	}
}

// Initialize builds the task list from the listed media files. Tasks keep
// listing order, start Pending, and the first task is active.
func (s *Store) Initialize(paths []string) error {
	if len(paths) == 0 {
		return ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]*Task, 0, len(paths))
	for _, path := range paths {
		s.tasks = append(s.tasks, &Task{
			Path:   path,
			Name:   DisplayName(path),
			Status: StatusPending,
		})
	}
	s.activeIndex = 0
	s.skipped = nil
	s.persistLocked()
	return nil
}

// Restore rebuilds the task list from a previously persisted snapshot.
// Statuses that describe in-flight work are reset to Pending since that work
// did not survive the interruption.
func (s *Store) Restore(snapshot Snapshot) error {
	if len(snapshot.Tasks) == 0 {
		return ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]*Task, 0, len(snapshot.Tasks))
	for _, saved := range snapshot.Tasks {
		status := saved.Status
		if status == StatusLoading || status == StatusProcessing || status == StatusReady {
			status = StatusPending
		}
		task := &Task{
			Path:      saved.Path,
			Name:      saved.Name,
			Status:    status,
			LastError: saved.LastError,
			Prepared:  saved.Prepared,
		}
		if task.Name == "" {
			task.Name = DisplayName(task.Path)
		}
		s.tasks = append(s.tasks, task)
		if task.Status == StatusError && task.LastError != "" {
			s.skipped = append(s.skipped, SkippedTask{Path: task.Path, Name: task.Name, Reason: task.LastError})
		}
	}

	s.activeIndex = snapshot.ActiveIndex
	if s.activeIndex < 0 {
		s.activeIndex = 0
	}
	if s.activeIndex >= len(s.tasks) {
		s.activeIndex = len(s.tasks) - 1
	}
	s.persistLocked()
	return nil
}

// Advance scans forward from the current active index and activates the
// first task that has not finished. It returns false when no task remains,
// which is the batch-finished condition.
func (s *Store) Advance() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := s.activeIndex; i < len(s.tasks); i++ {
		task := s.tasks[i]
		if task.IsTerminal() {
			continue
		}
		if task.Status == StatusPostponed {
			task.Status = StatusPending
		}
		// Cached prepared data (postponed tasks, restored checkpoints) skips
		// re-preparation, so the activated task is already Ready.
		if task.Status == StatusPending && task.Prepared != nil {
			task.Status = StatusReady
		}
		s.activeIndex = i
		s.persistLocked()
		return *task, true
	}

	s.activeIndex = len(s.tasks)
	s.persistLocked()
	return Task{}, false
}

// Active returns a copy of the active task.
func (s *Store) Active() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < 0 || s.activeIndex >= len(s.tasks) {
		return Task{}, false
	}
	return *s.tasks[s.activeIndex], true
}

// ActiveIndex returns the current active index.
func (s *Store) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex
}

// MarkActive moves the active task to the given status. Completion requires
// the task to be Processing, and an Error status requires a cause, which is
// recorded and added to the observable skipped list.
func (s *Store) MarkActive(status Status, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < 0 || s.activeIndex >= len(s.tasks) {
		return ErrNoActiveTask
	}
	task := s.tasks[s.activeIndex]

	switch status {
	case StatusCompleted:
		if task.Status != StatusProcessing {
			return fmt.Errorf("batch: cannot complete task %q from status %s", task.Name, task.Status)
		}
		task.Status = StatusCompleted
		task.LastError = ""
	case StatusError:
		if cause == nil {
			return fmt.Errorf("batch: error status for task %q requires a cause", task.Name)
		}
		task.Status = StatusError
		task.LastError = cause.Error()
		s.skipped = append(s.skipped, SkippedTask{Path: task.Path, Name: task.Name, Reason: task.LastError})
	case StatusSkipped:
		task.Status = StatusSkipped
	case StatusProcessing:
		for i, other := range s.tasks {
			if i != s.activeIndex && other.Status == StatusProcessing {
				return fmt.Errorf("batch: task %q is already processing", other.Name)
			}
		}
		task.Status = StatusProcessing
	case StatusLoading, StatusReady, StatusPending:
		task.Status = status
	default:
		return fmt.Errorf("batch: unsupported status transition to %s", status)
	}

	s.persistLocked()
	return nil
}

// PostponeActive moves the active task to the tail of the list so the rest
// of the batch runs first. The active index is left alone; the next Advance
// decides what runs next. Prepared data is kept so the task does not need
// re-preparation when it comes back around.
func (s *Store) PostponeActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < 0 || s.activeIndex >= len(s.tasks) {
		return ErrNoActiveTask
	}
	task := s.tasks[s.activeIndex]
	task.Status = StatusPostponed
	task.LastError = ""

	s.tasks = append(s.tasks[:s.activeIndex], s.tasks[s.activeIndex+1:]...)
	s.tasks = append(s.tasks, task)
	s.persistLocked()
	return nil
}

// BeginPreparation transitions a Pending task to Loading. It returns false
// when the task is not Pending, which callers use for single-flight
// preparation.
func (s *Store) BeginPreparation(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(path)
	if task == nil || task.Status != StatusPending {
		return false
	}
	task.Status = StatusLoading
	s.persistLocked()
	return true
}

// CompletePreparation attaches prepared data to a Loading task and marks it
// Ready.
func (s *Store) CompletePreparation(path string, prepared *media.PreparedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(path)
	if task == nil {
		return fmt.Errorf("batch: unknown task %q", path)
	}
	if task.Status != StatusLoading {
		return fmt.Errorf("batch: cannot finish preparing task %q from status %s", task.Name, task.Status)
	}
	task.Prepared = prepared
	task.Status = StatusReady
	s.persistLocked()
	return nil
}

// FailPreparation returns a Loading task to Pending so preparation can be
// retried on demand.
func (s *Store) FailPreparation(path string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(path)
	if task == nil || task.Status != StatusLoading {
		return
	}
	task.Status = StatusPending
	if cause != nil {
		s.logger.Warn("preparation failed, will retry on demand",
			logging.String(logging.FieldTaskName, task.Name),
			logging.Error(cause))
	}
	s.persistLocked()
}

// AttachPrepared caches prepared data on a task without changing its status.
// Used when an out-of-window prefetch finishes for a postponed task.
func (s *Store) AttachPrepared(path string, prepared *media.PreparedData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(path)
	if task == nil || task.Prepared != nil {
		return
	}
	task.Prepared = prepared
	s.persistLocked()
}

// TaskByPath returns a copy of the task with the given path.
func (s *Store) TaskByPath(path string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(path)
	if task == nil {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns copies of all tasks in order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	return out
}

// Upcoming returns copies of up to window tasks after the active one.
func (s *Store) Upcoming(window int) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, window)
	for i := s.activeIndex + 1; i < len(s.tasks) && len(out) < window; i++ {
		out = append(out, *s.tasks[i])
	}
	return out
}

// SkippedWithReason returns the tasks that errored out, with their reasons.
func (s *Store) SkippedWithReason() []SkippedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SkippedTask, len(s.skipped))
	copy(out, s.skipped)
	return out
}

// Counts reports completion totals for the finished-batch summary.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts Counts
	for _, task := range s.tasks {
		switch task.Status {
		case StatusCompleted:
			counts.Completed++
		case StatusSkipped:
			counts.Skipped++
		case StatusError:
			counts.Errored++
		}
	}
	return counts
}

// Snapshot returns the persistable view of the batch.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) findLocked(path string) *Task {
	for _, task := range s.tasks {
		if task.Path == path {
			return task
		}
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		InputRoot:   s.inputRoot,
		OutputRoot:  s.outputRoot,
		ActiveIndex: s.activeIndex,
		Tasks:       make([]TaskSnapshot, 0, len(s.tasks)),
	}
	for _, task := range s.tasks {
		snapshot.Tasks = append(snapshot.Tasks, TaskSnapshot{
			Path:      task.Path,
			Name:      task.Name,
			Status:    task.Status,
			LastError: task.LastError,
			Prepared:  task.Prepared,
		})
	}
	return snapshot
}

// persistLocked hands the current snapshot to the saver. Persist failures
// are logged and do not interrupt the batch.
func (s *Store) persistLocked() {
	if s.saver == nil {
		return
	}
	if err := s.saver.Save(s.snapshotLocked()); err != nil {
		s.logger.Warn("checkpoint write failed",
			logging.Error(services.Wrap(services.ErrPersist, "batch", "checkpoint", "save snapshot", err)))
	}
}
