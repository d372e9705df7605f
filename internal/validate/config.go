package validate

import (
	"fmt"
	"strings"
	"time"
)

// ValidatePortRange validates that a port number is within 1-65535.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidateRequiredString validates that a string field is not empty.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveTimeout validates that a duration is positive (> 0).
// Used for the reconcile interval and store/controller timeouts.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// ValidatePositiveInt validates that an integer setting is at least 1.
func ValidatePositiveInt(value int, name string) error {
	if err := ValidateField(value, "min=1"); err != nil {
		return fmt.Errorf("%s must be at least 1, got %d", name, value)
	}
	return nil
}

// ValidateModelList checks the warm-up model list of the processor pool:
// at least one entry, no blanks, no duplicates.
func ValidateModelList(models []string) error {
	if len(models) == 0 {
		return fmt.Errorf("model list cannot be empty")
	}

	seen := make(map[string]bool, len(models))
	for i, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			return fmt.Errorf("model at index %d cannot be empty", i)
		}
		if seen[m] {
			return fmt.Errorf("duplicate model '%s' in model list", m)
		}
		seen[m] = true
	}
	return nil
}
