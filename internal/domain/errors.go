package domain

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Kind classifies a failure of a prompt run.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindLaunch          Kind = "launch"
	KindLocate          Kind = "locate"
	KindSubmit          Kind = "submit"
	KindTimeout         Kind = "timeout"
	KindExtractionEmpty Kind = "extraction_empty"
	KindBusy            Kind = "busy"
	KindInternal        Kind = "internal"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrLaunch          = &Error{Kind: KindLaunch}
	ErrLocate          = &Error{Kind: KindLocate}
	ErrSubmit          = &Error{Kind: KindSubmit}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrExtractionEmpty = &Error{Kind: KindExtractionEmpty}
	ErrBusy            = &Error{Kind: KindBusy}
	ErrInternal        = &Error{Kind: KindInternal}
)

// Error is the single error type returned by the automation pipeline.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// NewError builds an *Error for the given kind and operation.
func NewError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the cause and the errdefs category so callers can use
// errdefs.IsInvalidArgument and friends without knowing about Kind.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return append(errs, e.category())
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil && t.Message == ""
}

func (e *Error) category() error {
	switch e.Kind {
	case KindValidation:
		return errdefs.ErrInvalidArgument
	case KindBusy:
		return errdefs.ErrUnavailable
	default:
		return errdefs.ErrInternal
	}
}

// KindOf returns the kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
