package orders

import (
	"errors"
	"fmt"
)

// Sentinel errors. Handlers map these to HTTP statuses; none are retried
// here, though ErrConflict and ErrStorage are safe for the caller to retry.
var (
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("order not found")
	ErrItemNotFound     = errors.New("item not found in order")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("concurrent modification")
	ErrStorage          = errors.New("storage failure")
	ErrDuplicateRequest = errors.New("duplicate create request")
)

// InvalidTransitionError reports a return-lifecycle precondition violation.
// The message always names the state that blocked the transition.
type InvalidTransitionError struct {
	Current ReturnStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("item return status is already %q", e.Current)
}
