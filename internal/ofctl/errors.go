package ofctl

import "errors"

// ErrSwitchNotConnected is returned when the controller has no datapath with
// the requested id.
var ErrSwitchNotConnected = errors.New("switch not connected to controller")
