package media

import (
	"fmt"

	"framecut/internal/services"
)

// IncompatibleError reports an input that failed the pre-flight
// compatibility check. It is retriable with GenerateOptions.Force, which
// re-encodes instead of failing fast.
type IncompatibleError struct {
	Path   string
	Detail string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("incompatible input %s: %s", e.Path, e.Detail)
}

// Unwrap ties the error into the incompatible-inputs classification.
func (e *IncompatibleError) Unwrap() error {
	return services.ErrIncompatible
}
