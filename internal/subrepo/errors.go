package subrepo

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/utils/errutils"
)

// PreconditionError is returned when an operation cannot start in the current
// state of the repository. Nothing has been modified when it is returned.
type PreconditionError struct {
	Msg string
	// Hint is an optional suggestion on how to get out of the situation.
	Hint string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// IsPrecondition reports whether err is (or wraps) a *PreconditionError.
func IsPrecondition(err error) bool {
	return errutils.Has[*PreconditionError](err)
}

func preconditionf(hint string, format string, args ...any) error {
	return errors.WithStack(&PreconditionError{Msg: fmt.Sprintf(format, args...), Hint: hint})
}
