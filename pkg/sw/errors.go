package sw

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a lifecycle step is invoked out of order.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrNoController is returned when a message has no controller to go to.
	ErrNoController = errors.New("no controller registered")
)

// InstallError reports a failed install step.
type InstallError struct {
	// CacheName is the region the install was populating.
	CacheName string

	// Entry is the manifest entry that failed, empty for non-fetch failures.
	Entry string

	Err error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("install %s: entry %q: %v", e.CacheName, e.Entry, e.Err)
	}
	return fmt.Sprintf("install %s: %v", e.CacheName, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InstallError) Unwrap() error {
	return e.Err
}

func stateError(step string, s State) error {
	return fmt.Errorf("%w: %s called in state %s", ErrInvalidState, step, s)
}
