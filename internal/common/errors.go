package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the pipeline and HTTP layer can branch
// without inspecting error strings.
type ErrorKind string

const (
	// KindInvalidInput marks caller mistakes: unsupported extension,
	// malformed workbook, unknown project.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindNotFound marks a missing entity lookup.
	KindNotFound ErrorKind = "not_found"

	// KindConflict marks a state collision, e.g. a pipeline already running
	// for the project.
	KindConflict ErrorKind = "conflict"

	// KindTransient marks retryable upstream failures: rate limits,
	// connection drops, provider 5xx.
	KindTransient ErrorKind = "transient"

	// KindStagePartial marks a stage that degraded but allowed the
	// pipeline to continue.
	KindStagePartial ErrorKind = "stage_partial"

	// KindFatal marks failures that abort the pipeline run.
	KindFatal ErrorKind = "fatal"
)

// KindError wraps an underlying error with a classification.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *KindError) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// Errorf creates a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &KindError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or KindFatal when the chain
// carries no KindError.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindFatal
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	var ke *KindError
	return errors.As(err, &ke) && ke.Kind == kind
}
