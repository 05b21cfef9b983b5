package apperror

import (
	"errors"
	"fmt"
	"worker-analysis/constant"
)

// Error tags a failure with the pipeline step that produced it.
type Error struct {
	Kind constant.ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind constant.ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) (constant.ErrorKind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

func Is(err error, kind constant.ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
