package race

import (
	"errors"
	"fmt"
)

// FatalError aborts an entire ingestion batch. It is raised when a layout
// assumption is violated badly enough that continuing could silently store
// corrupt results.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return "fatal: " + e.Reason
	}
	return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a FatalError.
func Fatal(reason string, err error) error {
	return &FatalError{Reason: reason, Err: err}
}

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
