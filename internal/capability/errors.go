package capability

import "errors"

var (
	// ErrNotFound indicates the requested record or pending download
	// doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned on underlying I/O failure; it is
	// never swallowed silently.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidTransition indicates a Pending Download status change
	// that is not a legal edge of the state machine.
	ErrInvalidTransition = errors.New("invalid pending status transition")
)
