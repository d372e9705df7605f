// Package commands provides the CLI command structure for the otto daemon.
//
// The daemon is a single root command. PreRunE resolves configuration in a
// fixed order before anything starts:
//  1. Record which flags the user set explicitly
//  2. Redirect logging to --log-file when given
//  3. Apply the YAML file and environment overrides
//  4. Validate and normalize the result
//
// RunE then hands control to daemon.Run until a shutdown signal arrives.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/concave-dev/otto/cmd/ottod/config"
	"github.com/concave-dev/otto/cmd/ottod/daemon"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/version"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Logging may point at the file being closed
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for the otto daemon
var RootCmd = &cobra.Command{
	Use:   "ottod",
	Short: "Intent-based northbound state layer for SDN controllers",
	Long: `otto daemon (ottod) keeps a registry of switch flow state, reconciles it
against the live SDN controller and serves intent declaration and activity
queries over an HTTP API.

Intents are handled by a pool of model-bound processors warmed at startup.`,
	Version:      version.OttodVersion,
	SilenceUsage: true,
	Example: `  # Local development against Ryu with embedded stores
  ottod --store=sqlite --controller=http://127.0.0.1:8080

  # MongoDB-backed deployment with registry sync
  ottod --mongo-uri=mongodb://db:27017 --history-uri=mongodb://db:27018 --sync-registry

  # Smaller pool with explicit models
  ottod --pool-size=4 --models=gpt-4o,llama --reconcile-interval=30s`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		displayBanner(version.OttodVersion)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		CheckExplicitFlags(cmd)

		if config.Global.IsExplicitlySet(config.LogFileField) && config.Global.LogFile != "" {
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}
			logging.SetOutput(logFileHandle)
		}

		// Apply the flag level first so config loading honours --log-level=ERROR
		logging.SetLevel(config.Global.LogLevel)
		if err := config.InitializeConfig(); err != nil {
			CleanupLogFile()
			return err
		}
		logging.SetLevel(config.Global.LogLevel)

		if err := config.ValidateConfig(); err != nil {
			CleanupLogFile()
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer CleanupLogFile()
		return daemon.Run()
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	SetupFlags(RootCmd)
}
