package repo

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookup operations when no row matches.
var ErrNotFound = errors.New("not found")

// Storage error codes.
const (
	StorageCodeDuplicate = "duplicate"
	StorageCodeGeneral   = "general"
)

// StorageError wraps a persistence failure with a provider-independent code.
// The duplicate code marks unique-constraint violations, which upstream
// treats as benign redelivery.
type StorageError struct {
	Op   string
	Code string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Duplicate reports whether the failure was a unique-constraint violation.
func (e *StorageError) Duplicate() bool { return e.Code == StorageCodeDuplicate }

// IsDuplicate reports whether err is a duplicate-key storage error.
func IsDuplicate(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Duplicate()
}

// ClassificationError wraps a classifier failure: provider errors,
// malformed structured output, or invariant violations on the result.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classification %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// NotifyError wraps an acknowledgment post failure. Never fatal.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
