// Package verrors implements the error-kind taxonomy of §7: one type per
// kind, each formatting down to a one-line reason suitable for the
// activity log, with Is* helpers so callers can branch on kind. The
// types carry no handling of their own; nothing retries or aborts on a
// kind automatically.
package verrors

import (
	"errors"
	"fmt"
)

// NotFoundError means a referenced id is missing. Never retried.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError means two writers raced on an invariant. The second
// writer is rejected and state is left untouched.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

func Conflict(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

// IntegrityError means the caller attempted to break a stated invariant
// (e.g. tombstoning a pinned chunk). The operation is rejected and the
// error is returned to the caller; it is not recorded as an activity.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation: %s", e.Reason)
}

func Integrity(reason string) *IntegrityError {
	return &IntegrityError{Reason: reason}
}

// TransientStoreError is an IO/lock failure in the Store. It is returned
// to the caller as is; neither the Store nor the cycle driver retries
// the failed operation.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

func Transient(op string, err error) *TransientStoreError {
	return &TransientStoreError{Op: op, Err: err}
}

// ExecutorError means the external executor returned malformed output
// or timed out. The task is marked failed; no learnings are persisted.
type ExecutorError struct {
	Reason string
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor failure: %s", e.Reason)
}

func Executor(reason string) *ExecutorError {
	return &ExecutorError{Reason: reason}
}

// EmbeddingError means a chunk was stored without an embedding; it
// remains retrievable lexically and via the graph, but not semantically;
// nothing re-embeds it afterwards.
type EmbeddingError struct {
	ChunkID string
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed for chunk %s: %v", e.ChunkID, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func Embedding(chunkID string, err error) *EmbeddingError {
	return &EmbeddingError{ChunkID: chunkID, Err: err}
}

// CorruptionError means an archive exists with no matching live row, or
// a checksum mismatch was detected. No code in the repository raises it:
// loading a project does not check for either condition.
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corruption detected: %s", e.Reason)
}

func Corruption(reason string) *CorruptionError {
	return &CorruptionError{Reason: reason}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var e *IntegrityError
	return errors.As(err, &e)
}

// IsTransient reports whether err is (or wraps) a TransientStoreError.
func IsTransient(err error) bool {
	var e *TransientStoreError
	return errors.As(err, &e)
}
