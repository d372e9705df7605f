package intentpool

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable matches every ModelUnavailableError via errors.Is.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelUnavailableError reports that a processor for Model could not be
// constructed.
type ModelUnavailableError struct {
	Model string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports ErrModelUnavailable as a match.
func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}
