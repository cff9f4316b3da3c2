package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	ToolMissing            Kind = "ToolMissing"
	DelegateMissing        Kind = "DelegateMissing"
	ValidationError        Kind = "ValidationError"
	DelegateExecutionError Kind = "DelegateExecutionError"
	DelegateTimeout        Kind = "DelegateTimeout"
	ShellNotFound          Kind = "ShellNotFound"
	ArtifactMissing        Kind = "ArtifactMissing"
	ReportWriteError       Kind = "ReportWriteError"
	CleanupWarning         Kind = "CleanupWarning"
	UserInterrupt          Kind = "UserInterrupt"
	Unexpected             Kind = "Unexpected"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrToolMissing       = &Error{Kind: ToolMissing}
	ErrDelegateMissing   = &Error{Kind: DelegateMissing}
	ErrValidation        = &Error{Kind: ValidationError}
	ErrDelegateExecution = &Error{Kind: DelegateExecutionError}
	ErrDelegateTimeout   = &Error{Kind: DelegateTimeout}
	ErrShellNotFound     = &Error{Kind: ShellNotFound}
	ErrArtifactMissing   = &Error{Kind: ArtifactMissing}
	ErrUserInterrupt     = &Error{Kind: UserInterrupt}
)

type Error struct {
	Kind Kind
	// Hint is a remediation suggestion shown to the user, if any.
	Hint string
	Err  error
}

func NewError(kind Kind, err error, hint string) *Error {
	return &Error{Kind: kind, Err: err, Hint: hint}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or
// Unexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// HintOf returns the remediation hint carried by err, if any.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}

// reported marks an error whose details were already shown to the user.
type reported struct {
	error
}

func (r reported) Unwrap() error { return r.error }

// Reported wraps err so that the command line does not print it again.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return reported{err}
}

func IsReported(err error) bool {
	var r reported
	return errors.As(err, &r)
}
