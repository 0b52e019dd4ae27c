package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the per-output-directory session lock.
const LockFileName = ".framecut.lock"

// ErrSessionHeld is returned when another framecut session owns the output
// directory.
var ErrSessionHeld = errors.New("pipeline: another session is editing this output directory")

// Session enforces single-instance access to one output directory. Two
// concurrent sessions would race on the checkpoint sidecar.
type Session struct {
	path string
	lock *flock.Flock
}

// NewSession builds a session lock for outputDir.
func NewSession(outputDir string) *Session {
	path := filepath.Join(outputDir, LockFileName)
	return &Session{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking.
func (s *Session) Acquire() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return ErrSessionHeld
	}
	return nil
}

// Release drops the lock.
func (s *Session) Release() error {
	return s.lock.Unlock()
}

// Path returns the lock file location.
func (s *Session) Path() string {
	return s.path
}
