package screenconfig

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("screen config not found")
	ErrPathNotString   = errors.New("update path must be a string")
	ErrInvalidPath     = errors.New("invalid update path")
	ErrInvalidDocument = errors.New("invalid config document")
	ErrNotLoaded       = errors.New("screen config not loaded")
	ErrClosed          = errors.New("screen config session closed")
	ErrInvalidKey      = errors.New("invalid screen key")
	ErrArchiveDisabled = errors.New("export archive not configured")
)

// StoreError wraps a failure reported by the data store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("screen config store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError rejects an update or import without touching state.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AssociationError reports a failed event link. It never fails a save.
type AssociationError struct {
	EventID  string
	ScreenID string
	Err      error
}

func (e *AssociationError) Error() string {
	return fmt.Sprintf("associate screen %s with event %s: %v", e.ScreenID, e.EventID, e.Err)
}

func (e *AssociationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a synchronous validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrPathNotString) ||
		errors.Is(err, ErrInvalidPath) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidKey)
}
