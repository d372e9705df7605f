// Package config provides default configuration values shared across otto
// components (document store, reconciler, processor pool, HTTP API).
package config

import "time"

const (
	// DefaultBindAddr is the default bind address for the HTTP API
	DefaultBindAddr = "127.0.0.1"

	// DefaultAPIPort is the default HTTP API port
	DefaultAPIPort = 8000

	// DefaultLogLevel is the default log level for all components
	DefaultLogLevel = "INFO"

	// DefaultDataDir holds the embedded sqlite stores when --store=sqlite
	DefaultDataDir = "./data"
)

// Document store defaults.
const (
	// StoreMongo selects the MongoDB backend
	StoreMongo = "mongo"

	// StoreSQLite selects the embedded sqlite backend
	StoreSQLite = "sqlite"

	DefaultStore = StoreMongo

	DefaultMongoURI   = "mongodb://localhost:27017"
	DefaultHistoryURI = "mongodb://localhost:27018"

	// Switch records live in topology.switches
	DefaultTopologyDatabase   = "topology"
	DefaultSwitchesCollection = "switches"

	// Processed intents live in intent_history.processed_intents
	DefaultHistoryDatabase     = "intent_history"
	DefaultHistoryCollection   = "processed_intents"
	DefaultStoreConnectTimeout = 10 * time.Second
)

// Controller and reconciler defaults.
const (
	// DefaultControllerURL is the Ryu ofctl REST endpoint
	DefaultControllerURL = "http://localhost:8080"

	DefaultControllerTimeout = 10 * time.Second

	DefaultReconcileInterval = 60 * time.Second

	// DefaultMaxConcurrentFetches bounds parallel per-switch state fetches
	DefaultMaxConcurrentFetches = 8
)

// Intent processor pool defaults.
const (
	DefaultPoolSize = 6

	// DefaultIntentModel serves declarations that name no model
	DefaultIntentModel = "gpt-4o"

	// DefaultDeclarer is the context bound to warm-up workers
	DefaultDeclarer = "admin"

	// DefaultLatestLimit is the number of records returned by latest activity
	DefaultLatestLimit = 5
)

// DefaultModels returns the warm-up model list. A function keeps callers from
// mutating a shared slice.
func DefaultModels() []string {
	return []string{"gpt-4o", "deepseek-chat"}
}
