package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, machine-readable classification of a pipeline
// failure. Kinds are part of the API contract.
type ErrorKind string

const (
	KindUnsupportedFormat     ErrorKind = "unsupported_format"
	KindNoTextRecognized      ErrorKind = "no_text_recognized"
	KindInputTooLarge         ErrorKind = "input_too_large"
	KindInvalidTargetLanguage ErrorKind = "invalid_target_language"
	KindQuotaExceeded         ErrorKind = "quota_exceeded"
	KindRateLimited           ErrorKind = "rate_limited"
	KindUpstreamUnavailable   ErrorKind = "upstream_unavailable"
	KindConfigurationMissing  ErrorKind = "configuration_missing"
	KindInternal              ErrorKind = "internal"
)

// Error represents a pipeline error with context. Message is safe to show to
// callers; Err carries the underlying cause for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the taxonomy kind of err, or KindInternal for anything
// unclassified.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of err. Unclassified errors map to
// a generic message so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// Common error constructors
func UnsupportedFormatError(message string, err error) *Error {
	return NewError(KindUnsupportedFormat, message, err)
}

func NoTextRecognizedError(message string, err error) *Error {
	return NewError(KindNoTextRecognized, message, err)
}

func InputTooLargeError(message string, err error) *Error {
	return NewError(KindInputTooLarge, message, err)
}

func InvalidTargetLanguageError(message string, err error) *Error {
	return NewError(KindInvalidTargetLanguage, message, err)
}

func QuotaExceededError(message string, err error) *Error {
	return NewError(KindQuotaExceeded, message, err)
}

func RateLimitedError(message string, err error) *Error {
	return NewError(KindRateLimited, message, err)
}

func UpstreamUnavailableError(message string, err error) *Error {
	return NewError(KindUpstreamUnavailable, message, err)
}

func ConfigurationMissingError(message string, err error) *Error {
	return NewError(KindConfigurationMissing, message, err)
}
