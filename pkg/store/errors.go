package store

import (
	"errors"
	"fmt"
)

var ErrStorage = errors.New("storage error")

// StorageError reports an I/O, database or decode failure. It never means "not found"; missing
// artifacts are reported with models.NotTrainedError.
type StorageError struct {
	Message       string
	OriginalError error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s (original error: %v)", e.Message, e.OriginalError)
}

func (e *StorageError) Unwrap() []error {
	if e.OriginalError == nil {
		return []error{ErrStorage}
	}
	return []error{ErrStorage, e.OriginalError}
}

func NewStorageError(message string, originalError error) *StorageError {
	return &StorageError{Message: message, OriginalError: originalError}
}

var ErrIncompatibleFormat = errors.New("incompatible artifact format")

type IncompatibleFormatError struct {
	Version    string
	Constraint string
}

func (e *IncompatibleFormatError) Error() string {
	return fmt.Sprintf(
		"artifact format %s does not satisfy %s. retrain the model with this version of textlab",
		e.Version,
		e.Constraint,
	)
}

func (e *IncompatibleFormatError) Unwrap() error {
	return ErrIncompatibleFormat
}
