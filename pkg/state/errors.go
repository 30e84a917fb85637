package state

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrWriteFailed is matched by every *WriteError.
var ErrWriteFailed = errors.New("state: write failed")

// WriteError reports a failed persistence attempt. Op names the step that
// failed (encode, mkdir, create, write, sync, close, chmod, rename).
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("state: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrWriteFailed) match any WriteError.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// Retryable reports whether the failure is transient (disk full, busy or
// interrupted). Permission and encoding failures are not.
func (e *WriteError) Retryable() bool {
	if e == nil || e.Err == nil {
		return false
	}
	for _, errno := range []syscall.Errno{syscall.ENOSPC, syscall.EAGAIN, syscall.EINTR, syscall.EBUSY} {
		if errors.Is(e.Err, errno) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err wraps a retryable WriteError.
func IsRetryable(err error) bool {
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		return false
	}
	return writeErr.Retryable()
}

func newWriteError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Op: op, Path: path, Err: err}
}
