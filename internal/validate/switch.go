package validate

import (
	"fmt"
	"strconv"
)

// SwitchNameFormat validates a switch name. Switch records are keyed by the
// datapath id in decimal, the form the ofctl REST API reports and accepts.
func SwitchNameFormat(name string) error {
	if name == "" {
		return fmt.Errorf("switch name cannot be empty")
	}

	if err := ValidateField(name, "numeric"); err != nil {
		return fmt.Errorf("switch name '%s' must be a decimal datapath id", name)
	}

	// Datapath ids are 64-bit
	if _, err := strconv.ParseUint(name, 10, 64); err != nil {
		return fmt.Errorf("switch name '%s' is not a valid 64-bit datapath id", name)
	}

	return nil
}
