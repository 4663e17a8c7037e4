package changelog

import (
	"errors"
	"fmt"
)

// InvalidCheckpoint reasons.
const (
	// ReasonBelowConfirmed means the proposed checkpoint is older than the
	// last confirmed one.
	ReasonBelowConfirmed = "checkpoint is below the last confirmed checkpoint"
	// ReasonNotFound means no stored event carries the proposed checkpoint id.
	ReasonNotFound = "checkpoint does not exist"
)

// InvalidCheckpointError rejects a consumer-supplied checkpoint. It is a
// caller error: re-reading the feed yields a valid checkpoint to retry with.
type InvalidCheckpointError struct {
	CheckpointID uint64
	Reason       string
}

func (e *InvalidCheckpointError) Error() string {
	return fmt.Sprintf("invalid checkpoint %d: %s", e.CheckpointID, e.Reason)
}

// IsInvalidCheckpoint reports whether err is an InvalidCheckpointError.
func IsInvalidCheckpoint(err error) bool {
	var ice *InvalidCheckpointError
	return errors.As(err, &ice)
}

// StorageError wraps an underlying persistence failure. Callers may retry;
// the failed operation left no partial state behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "changelog: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
