// Package validate provides input validation for otto daemon configuration and
// API requests, rejecting malformed values before they reach the document store,
// the controller client or the intent processor pool.
//
// Implements bind address, controller URL and datapath id validation using the
// go-playground/validator library.
//
// VALIDATION FEATURES:
//   - Bind Address: "host:port" with an IP host and a port in range
//   - Controller URL: absolute http(s) URL of the ofctl REST endpoint
//   - Store URI: mongodb:// or mongodb+srv:// connection strings
//   - Switch Names: decimal datapath ids as reported by the controller
package validate

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
}

// NetworkAddress is a validated "host:port" pair used for the API listener.
type NetworkAddress struct {
	Host string `validate:"required,ip"`
	Port int    `validate:"required,min=0,max=65535"`
}

// String returns the address in "host:port" form.
func (na NetworkAddress) String() string {
	return net.JoinHostPort(na.Host, strconv.Itoa(na.Port))
}

// ParseBindAddress parses and validates a "host:port" listener address.
// Hostnames are rejected; the API binds to an explicit IP.
func ParseBindAddress(addr string) (*NetworkAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	netAddr := &NetworkAddress{
		Host: host,
		Port: port,
	}

	if err := validate.Struct(netAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return netAddr, nil
}

// ValidateField validates a single value against validator tags.
//
// Example: ValidateField("http://127.0.0.1:8080", "required,http_url")
func ValidateField(value any, tag string) error {
	return validate.Var(value, tag)
}

// ValidateControllerURL checks that the ofctl endpoint is an absolute http or
// https URL.
func ValidateControllerURL(raw string) error {
	if err := ValidateField(raw, "required,http_url"); err != nil {
		return fmt.Errorf("invalid controller URL '%s': must be an absolute http(s) URL", raw)
	}
	return nil
}

// ValidateMongoURI checks the scheme of a MongoDB connection string. The
// driver performs full parsing when connecting.
func ValidateMongoURI(raw string) error {
	if err := ValidateRequiredString(raw, "mongo URI"); err != nil {
		return err
	}
	if !strings.HasPrefix(raw, "mongodb://") && !strings.HasPrefix(raw, "mongodb+srv://") {
		return fmt.Errorf("invalid mongo URI '%s': scheme must be mongodb:// or mongodb+srv://", raw)
	}
	return nil
}
