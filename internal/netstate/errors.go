package netstate

import (
	"errors"
	"fmt"
)

var (
	// ErrSwitchNotFound is returned by Get when no record matches.
	ErrSwitchNotFound = errors.New("switch record not found")

	// ErrUnknownSwitch is returned by Update and Remove for names with no
	// cached identity.
	ErrUnknownSwitch = errors.New("unknown switch")

	// ErrDuplicateSwitch is returned by Put for a name already registered.
	ErrDuplicateSwitch = errors.New("switch already registered")

	// ErrInvalidRecord is returned for records without a usable name or
	// patches that try to rename a switch.
	ErrInvalidRecord = errors.New("invalid switch record")
)

// DatabaseError wraps a document store failure with the registry operation
// and the switch it targeted.
type DatabaseError struct {
	Op     string
	Switch string
	Err    error
}

func (e *DatabaseError) Error() string {
	if e.Switch == "" {
		return fmt.Sprintf("network database: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network database: %s switch %s: %v", e.Op, e.Switch, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func dbError(op, name string, err error) error {
	return &DatabaseError{Op: op, Switch: name, Err: err}
}
