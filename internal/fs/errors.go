package fs

import (
	"errors"
	"syscall"
)

// isTransient reports whether an error is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// extend here for network filesystem specific errors if needed
	return false
}
