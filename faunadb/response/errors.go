package response

import (
	"errors"
	"fmt"
)

var ErrTypeMismatch = errors.New("type mismatch")

// TypeMismatchError reports a narrowing to a kind the value was not
// classified as.
type TypeMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
