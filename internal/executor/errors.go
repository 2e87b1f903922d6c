package executor

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/fenilsonani/devclean/internal/trash"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ReasonPermissionDenied ErrorReason = iota
	ReasonBusy
	ReasonNotFound
	ReasonCrossDevice
	ReasonExternalTool
	ReasonInvalidPath
	ReasonUnknown
)

// String returns a human-readable error reason
func (r ErrorReason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonBusy:
		return "in use"
	case ReasonNotFound:
		return "not found"
	case ReasonCrossDevice:
		return "cross-device move"
	case ReasonExternalTool:
		return "external tool failed"
	case ReasonInvalidPath:
		return "invalid path"
	case ReasonUnknown:
		return "unknown error"
	default:
		return "unspecified error"
	}
}

// DeletionError represents a categorized failure to remove one item
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap exposes the underlying error for errors.Is/As chains
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a short message suitable for the results table
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonBusy:
		return "in use, close the application holding it and retry"
	case ReasonNotFound:
		return "already gone"
	case ReasonCrossDevice:
		return "trash is on a different device, use --permanent"
	case ReasonExternalTool:
		return "tool command failed"
	case ReasonInvalidPath:
		return "path failed safety validation"
	default:
		return fmt.Sprintf("error: %v", e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ReasonUnknown,
	}

	if errors.Is(err, trash.ErrCrossDevice) {
		delErr.Reason = ReasonCrossDevice
		return delErr
	}
	if os.IsNotExist(err) {
		delErr.Reason = ReasonNotFound
		return delErr
	}
	if os.IsPermission(err) {
		delErr.Reason = ReasonPermissionDenied
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ReasonPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ReasonBusy
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ReasonNotFound
		case syscall.EXDEV:
			delErr.Reason = ReasonCrossDevice
		}
	}

	return delErr
}

// GroupErrors groups failures by reason for the session summary
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}
