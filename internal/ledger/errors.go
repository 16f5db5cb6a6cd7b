package ledger

import "errors"

var (
	// ErrValidation marks input rejected before any mutation; the ledger is unchanged.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks a failed read or write of the backing store. The ledger
	// keeps operating in memory.
	ErrPersistence = errors.New("persistence error")
	// ErrNotification marks a subscriber that panicked while being notified.
	ErrNotification = errors.New("notification error")
)
