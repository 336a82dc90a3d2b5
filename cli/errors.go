package cli

import (
	"errors"
	"fmt"

	"github.com/1rvyn/story-builder/store"
)

// ExitNotFound is the exit code for a story id that does not exist.
const ExitNotFound = 2

// ExitError lets a command ask for a specific exit code without calling
// os.Exit itself. Err, when set, is printed by Run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// IsExitError extracts the code from an *ExitError anywhere in err's chain.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// lookupError gives missing stories their own exit code.
func lookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitNotFound, err)
	}
	return err
}
