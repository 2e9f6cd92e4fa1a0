package rocq

// errors.go — the engine's error taxonomy: sentinel kinds plus an
// EngineError wrapper compatible with errors.Is/errors.As.

import (
	"errors"
	"fmt"
)

// Kind classifies an EngineError.
type Kind string

const (
	KindServerUnavailable Kind = "ServerUnavailable"
	KindServerTimeout     Kind = "ServerTimeout"
	KindInvalidFile       Kind = "InvalidFile"
	KindInvalidAdd        Kind = "InvalidAdd"
	KindInvalidDelete     Kind = "InvalidDelete"
	KindNotationNotFound  Kind = "NotationNotFound"
	KindInvalidStep       Kind = "InvalidStep"
	KindNotImplemented    Kind = "NotImplemented"
)

// EngineError carries a taxonomy Kind plus the underlying cause.
type EngineError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is reports whether target is an *EngineError with the same Kind, so
// callers can do errors.Is(err, &EngineError{Kind: KindInvalidAdd}).
func (e *EngineError) Is(target error) bool {
	var other *EngineError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, msg string, cause error) *EngineError {
	return &EngineError{Kind: kind, Msg: msg, Err: cause}
}

func errServerUnavailable(cause error) error {
	return newErr(KindServerUnavailable, "cannot communicate with the language server", cause)
}

func errServerTimeout(op string, cause error) error {
	return newErr(KindServerTimeout, "timed out waiting for "+op, cause)
}

func errInvalidFile(reason string, cause error) error {
	return newErr(KindInvalidFile, reason, cause)
}

func errInvalidAdd(reason string) error {
	return newErr(KindInvalidAdd, reason, nil)
}

func errInvalidDelete(reason string) error {
	return newErr(KindInvalidDelete, reason, nil)
}

func errNotationNotFound(pattern, scope string) error {
	return newErr(KindNotationNotFound, fmt.Sprintf("no notation matching pattern %q in scope %q", pattern, scope), nil)
}

func errNotImplemented(reason string) error {
	return newErr(KindNotImplemented, reason, nil)
}

// IsKind reports whether err (or any error it wraps) is an *EngineError
// of the given Kind.
func IsKind(err error, kind Kind) bool {
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Kind == kind
}
