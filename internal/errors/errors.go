// Package errors provides the structured error taxonomy for ctenv, per the
// error kinds enumerated in the invocation pipeline specification.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one of the fatal error kinds the pipeline can raise.
// RunExit (the runtime child's own exit code) is deliberately not a Kind:
// it is not an error, it is this tool's own exit status.
type Kind string

const (
	KindConfigLoad        Kind = "ConfigLoadError"
	KindConfigParse       Kind = "ConfigParseError"
	KindConfigSchema      Kind = "ConfigSchemaError"
	KindConfigType        Kind = "ConfigTypeError"
	KindUnknownContainer  Kind = "UnknownContainerError"
	KindAmbiguousDefault  Kind = "AmbiguousDefaultError"
	KindTemplate          Kind = "TemplateError"
	KindVolumeSyntax      Kind = "VolumeSyntaxError"
	KindPath              Kind = "PathError"
	KindRuntimeNotFound   Kind = "RuntimeNotFoundError"
	KindBuildFailure      Kind = "BuildFailure"
)

// CtenvError is a structured, fatal pipeline error. It carries enough
// context (file, container, field, value) to render the "single-line
// message first, then context lines" shape the CLI's error reporter uses.
type CtenvError struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]string
}

// Error implements the error interface.
func (e *CtenvError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CtenvError) Unwrap() error {
	return e.Cause
}

// Report renders the full, multi-line human-oriented message: a single
// summary line, then "name: value" context lines in a fixed,
// insertion-independent order (file, container, field, value, path,
// runtime; other keys are not printed), then the cause if one was attached.
func (e *CtenvError) Report() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, k := range []string{"file", "container", "field", "value", "path", "runtime"} {
		if v, ok := e.Context[k]; ok {
			sb.WriteString(fmt.Sprintf("\n  %s: %s", k, v))
		}
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("\n  cause: %s", e.Cause.Error()))
	}
	return sb.String()
}

// With attaches a context key/value pair and returns the same error for
// chaining, e.g. errors.New(...).With("file", path).With("field", "image").
func (e *CtenvError) With(key, value string) *CtenvError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a new CtenvError of the given kind.
func New(kind Kind, message string) *CtenvError {
	return &CtenvError{Kind: kind, Message: message, Context: make(map[string]string)}
}

// Newf creates a new CtenvError with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *CtenvError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error as a CtenvError of the given kind.
func Wrap(err error, kind Kind, message string) *CtenvError {
	e := New(kind, message)
	e.Cause = err
	return e
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *CtenvError {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// Is reports whether err is a CtenvError of the given kind.
func Is(err error, kind Kind) bool {
	var ce *CtenvError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// As attempts to convert err to a *CtenvError.
func As(err error) (*CtenvError, bool) {
	var ce *CtenvError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ExitCode maps a pipeline error to the process exit code it should cause,
// per the CLI's documented exit codes: 1 for configuration-layer errors.
// CLI parse errors (exit 2) are raised directly by the cobra layer and
// never reach this mapping.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
