package errors

import (
	"fmt"
)

// ParseError represents a task file parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures an invalid or missing parameter combination. It is
// always raised before any observation or mutation happens.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ObservationError reports that the current state could not be read or listed.
type ObservationError struct {
	Target string
	Err    error
}

// NewObservationError constructs an ObservationError for the given target.
func NewObservationError(target string, err error) error {
	return &ObservationError{Target: target, Err: err}
}

func (e *ObservationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("observation error: %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("observation error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ObservationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FileLoadError reports a local file referenced for injection that could not be read.
type FileLoadError struct {
	Path string
	Err  error
}

// NewFileLoadError constructs a FileLoadError.
func NewFileLoadError(path string, err error) error {
	return &FileLoadError{Path: path, Err: err}
}

func (e *FileLoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("failed to load file %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *FileLoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderError represents a rejected remote call or a resource that entered
// an error state.
type ProviderError struct {
	Provider   string
	ResourceID string
	Err        error
}

// NewProviderError constructs a ProviderError.
func NewProviderError(provider, resourceID string, err error) error {
	return &ProviderError{Provider: provider, ResourceID: resourceID, Err: err}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Provider != "" && e.ResourceID != "":
		return fmt.Sprintf("provider error [%s] on %s: %v", e.Provider, e.ResourceID, e.Err)
	case e.Provider != "":
		return fmt.Sprintf("provider error [%s]: %v", e.Provider, e.Err)
	case e.ResourceID != "":
		return fmt.Sprintf("provider error on %s: %v", e.ResourceID, e.Err)
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TimeoutError is returned when the poll budget runs out before a terminal state.
type TimeoutError struct {
	ResourceID string
	Attempts   int
	Waiting    string
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(resourceID, waiting string, attempts int) error {
	return &TimeoutError{ResourceID: resourceID, Waiting: waiting, Attempts: attempts}
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	if e.ResourceID != "" {
		return fmt.Sprintf("timeout waiting for %s to become %s after %d attempts", e.ResourceID, e.Waiting, e.Attempts)
	}
	return fmt.Sprintf("timeout waiting for %s after %d attempts", e.Waiting, e.Attempts)
}
