package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or missing search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidPath signals a missing path or a path of the wrong kind.
	ErrInvalidPath = errors.New("invalid path")
	// ErrExtractionFailure signals a document that could not be parsed or decoded.
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrIndexToolUnavailable signals that the native index tool could not answer.
	// Recovered by the search orchestrator, never returned to clients.
	ErrIndexToolUnavailable = errors.New("index tool unavailable")
	// ErrUnexpectedIO signals a filesystem failure that prevents the initial request.
	ErrUnexpectedIO = errors.New("unexpected io error")
	// ErrEmptyMessage signals a chat request with neither a message nor a document.
	ErrEmptyMessage = errors.New("empty message")
	// ErrInferenceProviderError signals an inference server failure.
	ErrInferenceProviderError = errors.New("inference provider error")
)

// PathError wraps ErrInvalidPath with the offending path and the reason.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidPath.Error(), e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidPath.Error(), e.Path, e.Reason)
}

func (e *PathError) Unwrap() error { return ErrInvalidPath }

// NewPathError creates an invalid path error.
func NewPathError(path, reason string) error {
	return &PathError{Path: path, Reason: reason}
}
