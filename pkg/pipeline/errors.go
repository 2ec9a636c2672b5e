package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrCanceled matches the error of every operation that ended through
// cancellation.
var ErrCanceled = errors.New("operation canceled")

type canceledError struct {
	state State
	err   error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("operation canceled while %s: %v", e.state, e.err)
}

func (e *canceledError) Is(target error) bool {
	return target == ErrCanceled
}

func (e *canceledError) Unwrap() error {
	return e.err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned before an operation starts; no file has been
// touched at that point.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}
