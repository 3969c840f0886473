// Package errors provides the error taxonomy for pagevet fetches.
//
// Only engine-launch failure is fatal to a run; every other error is
// captured into the result record of the URL that produced it.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes errors for propagation decisions.
type Kind int

const (
	// Unknown is an uncategorized error.
	Unknown Kind = iota
	// Launch means the browser engine failed to start. Fatal to the run.
	Launch
	// Acquire means a pool slot or tab could not be obtained. Per-URL.
	Acquire
	// Navigation means the page could not be reached. Per-URL, retried once.
	Navigation
	// Extraction means content retrieval or parsing failed. Per-URL,
	// downgraded to a dead classification with an alert.
	Extraction
	// Cancelled means the surrounding context was cancelled.
	Cancelled
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Launch:
		return "launch"
	case Acquire:
		return "acquire"
	case Navigation:
		return "navigation"
	case Extraction:
		return "extraction"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind abort the whole run.
func (k Kind) Fatal() bool {
	return k == Launch
}

// FetchError is a categorized error attached to one URL's fetch attempt.
type FetchError struct {
	Kind      Kind
	URL       string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Kind.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Kind.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target by kind.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a new FetchError.
func New(kind Kind, url, operation, message string, cause error) *FetchError {
	return &FetchError{
		Kind:      kind,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewLaunchError creates a fatal engine-launch error.
func NewLaunchError(cause error) *FetchError {
	return New(Launch, "", "launch", "browser engine failed to start", cause)
}

// NewAcquireError creates a slot/tab acquisition error.
func NewAcquireError(cause error) *FetchError {
	return New(Acquire, "", "acquire", "could not open browser tab", cause)
}

// NewNavigationError creates a navigation error.
func NewNavigationError(url, message string, cause error) *FetchError {
	return New(Navigation, url, "navigate", message, cause)
}

// NewExtractionError creates a content extraction error.
func NewExtractionError(url string, cause error) *FetchError {
	return New(Extraction, url, "extract", "content retrieval failed", cause)
}

// NewCancelledError creates a cancellation error.
func NewCancelledError(url, operation string) *FetchError {
	return New(Cancelled, url, operation, "operation cancelled", nil)
}

// GetKind extracts the kind from an error.
func GetKind(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsFatal reports whether an error should abort the whole run.
func IsFatal(err error) bool {
	return GetKind(err).Fatal()
}
