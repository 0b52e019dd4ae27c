package batch

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"framecut/internal/media"
)

// Status represents the lifecycle of a batch task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusPostponed  Status = "postponed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusLoading,
	StatusReady,
	StatusProcessing,
	StatusCompleted,
	StatusSkipped,
	StatusPostponed,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusSkipped:   {},
	StatusError:     {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminalStatus reports whether a status ends a task's participation in
// the batch. Terminal tasks are never revisited by Advance.
func IsTerminalStatus(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// Task is one media file moving through the batch.
type Task struct {
	Path      string
	Name      string
	Status    Status
	Prepared  *media.PreparedData
	LastError string
}

// IsTerminal reports whether the task has finished its run through the batch.
func (t Task) IsTerminal() bool {
	return IsTerminalStatus(t.Status)
}

// DisplayName derives the user-facing name for a media path. Decomposed
// unicode from other filesystems is normalized to NFC so names compare and
// render consistently.
func DisplayName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return norm.NFC.String(stem)
}

// SkippedTask records a task that left the batch without completing, with
// the reason it did.
type SkippedTask struct {
	Path   string
	Name   string
	Reason string
}

// TaskSnapshot is the persistable view of one task.
type TaskSnapshot struct {
	Path      string
	Name      string
	Status    Status
	LastError string
	Prepared  *media.PreparedData
}

// Snapshot is the persistable view of the whole batch, handed to the saver
// after every mutation.
type Snapshot struct {
	InputRoot   string
	OutputRoot  string
	Tasks       []TaskSnapshot
	ActiveIndex int
}

// Saver persists batch snapshots. Implementations must tolerate being called
// once per mutation; calls are serialized by the store.
type Saver interface {
	Save(snapshot Snapshot) error
}
