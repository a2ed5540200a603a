package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrBadRequest            = errors.New("bad request")
	ErrNotTrained            = errors.New("not trained")
	ErrTrainingTimeout       = errors.New("training timed out")
	ErrLockAcquisitionFailed = errors.New("failed to acquire advisory lock")
	ErrPayloadTooLarge       = errors.New("payload too large")
)

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ValidationError is returned for requests that can never succeed as submitted: missing columns,
// unlabeled data, unknown algorithm or representation names.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrBadRequest
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TooLargeError rejects input over a size limit. It is a validation error, but reported
// separately so hosts can answer with a distinct status.
type TooLargeError struct {
	What  string
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s exceeds the limit of %d bytes", e.What, e.Limit)
}

func (e *TooLargeError) Unwrap() []error {
	return []error{ErrPayloadTooLarge, ErrBadRequest}
}

func NewTooLargeError(what string, limit int64) error {
	return &TooLargeError{What: what, Limit: limit}
}

// NotTrainedError reports that no artifact exists for a task (and optionally an algorithm).
type NotTrainedError struct {
	TaskID    string
	Algorithm Algorithm
}

func (e *NotTrainedError) Error() string {
	if e.Algorithm == "" {
		return fmt.Sprintf("no model trained for task %s", e.TaskID)
	}
	return fmt.Sprintf("no %s model trained for task %s", e.Algorithm, e.TaskID)
}

func (e *NotTrainedError) Unwrap() error {
	return ErrNotTrained
}

func NewNotTrainedError(taskID string, algorithm Algorithm) error {
	return &NotTrainedError{TaskID: taskID, Algorithm: algorithm}
}

// StageError wraps a failure inside one pipeline stage. Index is the record index when the
// failure can be attributed to a single record, otherwise -1.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s stage failed at record %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage string, index int, err error) error {
	return &StageError{Stage: stage, Index: index, Err: err}
}

type AdvisoryLockError struct {
	Err error
}

func (e AdvisoryLockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to acquire advisory lock: %v", e.Err)
	}
	return ErrLockAcquisitionFailed.Error()
}

func (AdvisoryLockError) Unwrap() error {
	return ErrLockAcquisitionFailed
}

func NewAdvisoryLockError(err error) error {
	return &AdvisoryLockError{Err: err}
}
