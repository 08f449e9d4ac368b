package cli

import (
	"errors"

	"github.com/lydakis/getmyid"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1 // identity retrieval or I/O failed
	ExitUsageErr = 2 // bad flags, arguments or configuration
)

// usageError marks failures caused by how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func asUsage(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func classifyError(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *usageError
	if errors.As(err, &ue) || errors.Is(err, getmyid.ErrInvalidConfig) {
		return ExitUsageErr
	}
	return ExitFailure
}
