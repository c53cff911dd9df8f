// Package apperrors defines the error taxonomy shared by repositories,
// services and handlers.
//
// Every error that crosses a package boundary is either one of the sentinels
// below or an *Error carrying a Kind. Handlers only look at the Kind to pick a
// status code; services use errors.Is against the sentinels when they need to
// branch on a specific condition.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and status-code decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindStorage
	KindTransient
)

// String returns a human-readable name for a kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindAuthorization:
		return "Authorization"
	case KindNotFound:
		return "NotFound"
	case KindStorage:
		return "Storage"
	case KindTransient:
		return "TransientBackend"
	default:
		return "Internal"
	}
}

var (
	ErrQuotaExceeded        = errors.New("storage quota exceeded")
	ErrNotOwner             = errors.New("not the owner of this story")
	ErrNotVisible           = errors.New("story is not visible to this viewer")
	ErrRestoreWindowElapsed = errors.New("archived story can no longer be restored")
	ErrInvalidDuration      = errors.New("duration must be between 1 and 168 hours")
	ErrUnsupportedMedia     = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnknownElementType   = errors.New("unknown interactive element type")
)

// Error is the concrete error type produced by the constructors in this package.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed input. Never retried.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Authorization reports a caller that is not allowed to perform the operation.
func Authorization(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", resource, id)}
}

// Storage wraps a blob store failure.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// Transient wraps a network or relational store failure.
func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Wrap attaches a kind and a message to a sentinel so that errors.Is keeps working.
func Wrap(kind Kind, sentinel error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool    { return err != nil && KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return err != nil && KindOf(err) == KindAuthorization }
func IsNotFound(err error) bool      { return err != nil && KindOf(err) == KindNotFound }
func IsStorage(err error) bool       { return err != nil && KindOf(err) == KindStorage }
func IsTransient(err error) bool     { return err != nil && KindOf(err) == KindTransient }

// Retryable reports whether re-running the operation later may succeed.
func Retryable(err error) bool {
	return IsTransient(err)
}
