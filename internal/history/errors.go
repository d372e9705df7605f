package history

import (
	"errors"
	"fmt"
)

// ErrMultipleInstances is returned by Open while another store is open.
var ErrMultipleInstances = errors.New("an intent history store is already open")

// DatabaseError wraps a backend failure with the store operation.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("processed intents database: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
