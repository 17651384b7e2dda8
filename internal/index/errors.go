package index

import "errors"

var (
	// ErrUnknownSession indicates the session ID is absent from the current
	// generation. Expected client input, not a system failure.
	ErrUnknownSession = errors.New("unknown session")
	// ErrOutOfRange indicates a turn number outside [0, turn_count).
	ErrOutOfRange = errors.New("turn number out of range")
)
