package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad user input; the rejected operation leaves state unchanged.
	ErrValidation = errors.New("validation error")
	// ErrPreparation marks a failed prefetch/load; the task returns to pending and is retried on demand.
	ErrPreparation = errors.New("preparation error")
	// ErrProcessing marks a failed generation; the task is recorded as failed and the batch advances.
	ErrProcessing = errors.New("processing error")
	// ErrIncompatible marks structurally incompatible inputs; retriable with different options.
	ErrIncompatible = errors.New("incompatible inputs")
	// ErrPersist marks a checkpoint read/write failure; logged, never fatal.
	ErrPersist = errors.New("persist error")
	// ErrIO marks a listing/deletion failure surfaced to the user.
	ErrIO = errors.New("io error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetriable reports whether a failure self-heals on the next attempt rather
// than requiring a user decision.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrPreparation) || errors.Is(err, ErrPersist)
}

// NeedsDecision reports whether a failure must be surfaced to the user before
// the batch can continue with the same task.
func NeedsDecision(err error) bool {
	return errors.Is(err, ErrIncompatible)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
