package pipeline

import (
	"fmt"
	"strings"
)

// Disposition says what happens to a source file once its outputs exist.
type Disposition string

const (
	DispositionKeep   Disposition = "keep"
	DispositionDelete Disposition = "delete"
)

// ParseDisposition converts a config string into a Disposition.
func ParseDisposition(value string) (Disposition, error) {
	switch Disposition(strings.ToLower(strings.TrimSpace(value))) {
	case DispositionKeep:
		return DispositionKeep, nil
	case DispositionDelete:
		return DispositionDelete, nil
	default:
		return "", fmt.Errorf("pipeline: unknown disposition %q", value)
	}
}

// FailureMode says how an unattended run reacts to a failed task.
type FailureMode string

// FailureSkipAndContinue records the failure and moves to the next task.
// It is the only mode: failures never block the batch.
const FailureSkipAndContinue FailureMode = "skip_and_continue"

// DispositionPolicy is the unattended decision table injected into the
// controller instead of scattering mode booleans through it.
type DispositionPolicy struct {
	OnSuccess Disposition
	OnFailure FailureMode
}

// DefaultPolicy keeps sources and skips failures.
func DefaultPolicy() DispositionPolicy {
	return DispositionPolicy{
		OnSuccess: DispositionKeep,
		OnFailure: FailureSkipAndContinue,
	}
}
