package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an AppError
type Kind string

// Error kinds surfaced by the fetch layer and the pipeline
const (
	KindResolution      Kind = "RESOLUTION"
	KindNotFound        Kind = "NOT_FOUND"
	KindTransient       Kind = "TRANSIENT"
	KindMalformedRecord Kind = "MALFORMED_RECORD"
)

// Sentinels for errors.Is matching against any AppError of the same kind.
var (
	ErrResolution      = &AppError{Kind: KindResolution}
	ErrNotFound        = &AppError{Kind: KindNotFound}
	ErrTransient       = &AppError{Kind: KindTransient}
	ErrMalformedRecord = &AppError{Kind: KindMalformedRecord}
)

// AppError is an application-specific error type
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches two AppErrors by kind so the package sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// creates a new AppError
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

// wraps an error with a kind and message
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// Resolution reports user input that cannot be turned into a channel ID.
func Resolution(format string, args ...any) *AppError {
	return New(KindResolution, fmt.Sprintf(format, args...))
}

// NotFound reports a well-formed ID that does not exist on the platform.
func NotFound(format string, args ...any) *AppError {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// Transient wraps a network, quota or rate-limit failure.
func Transient(err error, format string, args ...any) *AppError {
	return Wrap(err, KindTransient, fmt.Sprintf(format, args...))
}

// Malformed reports a platform record missing a field the pipeline requires.
func Malformed(videoID, field, reason string) *AppError {
	return New(KindMalformedRecord, fmt.Sprintf("video %s: %s %s", videoID, field, reason))
}

// KindOf returns the kind of the first AppError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Retryable reports whether the caller may retry the operation that produced err.
func Retryable(err error) bool {
	return stderrors.Is(err, ErrTransient)
}
