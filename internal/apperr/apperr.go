package apperr

import (
	"errors"
	"fmt"
)

// Shared error kinds. Handlers match these with errors.Is / errors.As and
// map them to status codes; anything else is treated as an opaque storage
// failure and reported generically.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyAttempted = errors.New("already attempted")
	ErrExamEnded        = errors.New("exam has ended")
)

// ValidationError marks malformed or missing caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
