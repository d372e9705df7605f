// Package commands contains Cobra CLI command definitions for ottod.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/concave-dev/otto/cmd/ottod/config"
)

// flagFields maps flag names to the configuration fields they set.
var flagFields = map[string]config.ConfigField{
	"api":                config.APIAddrField,
	"store":              config.StoreField,
	"mongo-uri":          config.MongoURIField,
	"history-uri":        config.HistoryURIField,
	"data-dir":           config.DataDirField,
	"controller":         config.ControllerField,
	"reconcile-interval": config.ReconcileIntervalField,
	"sync-registry":      config.SyncRegistryField,
	"pool-size":          config.PoolSizeField,
	"models":             config.ModelsField,
	"log-level":          config.LogLevelField,
	"log-file":           config.LogFileField,
}

// SetupFlags configures all command line flags for the daemon
func SetupFlags(cmd *cobra.Command) {
	g := &config.Global

	// API flags
	cmd.Flags().StringVar(&g.APIAddr, "api", config.DefaultAPI,
		"Address and port for HTTP API server (e.g., "+config.DefaultAPI+")")

	// Store flags
	cmd.Flags().StringVar(&g.Store, "store", g.Store,
		"Document store backend: mongo or sqlite")
	cmd.Flags().StringVar(&g.MongoURI, "mongo-uri", g.MongoURI,
		"MongoDB connection string for the switch registry (env OTTO_MONGO_URI)")
	cmd.Flags().StringVar(&g.HistoryURI, "history-uri", g.HistoryURI,
		"MongoDB connection string for processed intents (env OTTO_HISTORY_URI)")
	cmd.Flags().StringVar(&g.DataDir, "data-dir", config.DefaultDataDir,
		"Directory for embedded sqlite stores when --store=sqlite")

	// Controller and reconciler flags
	cmd.Flags().StringVar(&g.ControllerURL, "controller", g.ControllerURL,
		"SDN controller ofctl REST endpoint (env OTTO_CONTROLLER_URL)")
	cmd.Flags().DurationVar(&g.ReconcileInterval, "reconcile-interval", g.ReconcileInterval,
		"Time between live state reconciliation runs")
	cmd.Flags().BoolVar(&g.SyncRegistry, "sync-registry", false,
		"Write live controller state back into the switch registry after each run")

	// Processor pool flags
	cmd.Flags().IntVar(&g.PoolSize, "pool-size", g.PoolSize,
		"Number of intent processors kept warm (env OTTO_POOL_SIZE)")
	cmd.Flags().StringSliceVar(&g.Models, "models", g.Models,
		"Comma-separated models warmed at startup (env OTTO_MODELS)")

	// Operational flags
	cmd.Flags().StringVar(&g.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	cmd.Flags().StringVar(&g.LogFile, "log-file", "",
		"Write logs to this file instead of stdout")
	cmd.Flags().StringVar(&g.ConfigFile, "config", "",
		"YAML configuration file; explicit flags take precedence")
}

// CheckExplicitFlags checks if flags were explicitly set by the user
func CheckExplicitFlags(cmd *cobra.Command) {
	for name, field := range flagFields {
		config.Global.SetExplicitlySet(field, cmd.Flags().Changed(name))
	}
}
