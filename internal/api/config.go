// Package api provides HTTP API server configuration for otto.
//
// The Config struct is the dependency injection container for the REST API:
// network binding plus the collaborators the handlers read from (switch
// registry, intent history, intent service, processor pool, reconciler).
// Validation runs before the server starts so a mis-wired daemon fails fast
// instead of answering 500 on the first request.
package api

import (
	"fmt"

	"github.com/concave-dev/otto/internal/api/handlers"
	"github.com/concave-dev/otto/internal/config"
	"github.com/concave-dev/otto/internal/validate"
)

// Config holds all configuration parameters required for running the HTTP API server.
//
// TODO: Add support for TLS/HTTPS configuration (cert/key files)
type Config struct {
	BindAddr        string                       // HTTP server bind address (e.g., "127.0.0.1")
	BindPort        int                          // HTTP server bind port
	DefaultDeclarer string                       // Declarer recorded when a request names none
	Registry        handlers.SwitchRegistry      // Registered switch state
	History         handlers.HistoryReader       // Processed intent history
	Intents         handlers.IntentDeclarer      // Intent fulfilment; may report no engine
	Pool            handlers.PoolInspector       // Intent processor pool
	Reconciler      handlers.ReconcilerInspector // State reconciler
}

// DefaultConfig creates a new Config instance with loopback binding and the
// default port. Collaborators must be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:        config.DefaultBindAddr,
		BindPort:        config.DefaultAPIPort,
		DefaultDeclarer: config.DefaultDeclarer,
	}
}

// Validate checks network settings and that every collaborator is wired.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	// Port 0 binds an ephemeral port
	if c.BindPort != 0 {
		if err := validate.ValidatePortRange(c.BindPort); err != nil {
			return fmt.Errorf("bind port validation failed: %w", err)
		}
	}
	if err := validate.ValidateRequiredString(c.DefaultDeclarer, "default declarer"); err != nil {
		return err
	}
	if c.Registry == nil {
		return fmt.Errorf("switch registry cannot be nil")
	}
	if c.History == nil {
		return fmt.Errorf("intent history cannot be nil")
	}
	if c.Intents == nil {
		return fmt.Errorf("intent service cannot be nil")
	}
	if c.Pool == nil {
		return fmt.Errorf("processor pool cannot be nil")
	}
	if c.Reconciler == nil {
		return fmt.Errorf("reconciler cannot be nil")
	}

	return nil
}
