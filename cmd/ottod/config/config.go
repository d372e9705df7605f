// Package config provides configuration management for the otto daemon.
//
// Values come from four layers applied in order: built-in defaults (the
// constants in internal/config), an optional YAML file named by --config,
// environment variables, and finally command line flags. A flag the user set
// explicitly always wins, so the file and environment layers only fill fields
// whose flag was left at its default.
//
// EXPLICIT OVERRIDE TRACKING:
// The configuration records which fields were set on the command line so the
// lower layers can respect user intent instead of overwriting it.
//
// STORE SELECTION:
//   - mongo: switch records in topology.switches on --mongo-uri and processed
//     intents in intent_history.processed_intents on --history-uri
//   - sqlite: both stores embedded under --data-dir (switches.db, history.db)
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	configDefaults "github.com/concave-dev/otto/internal/config"
)

// ConfigField represents a configuration field that can be explicitly set
type ConfigField int

const (
	// Configuration field identifiers
	APIAddrField ConfigField = iota
	StoreField
	MongoURIField
	HistoryURIField
	DataDirField
	ControllerField
	ReconcileIntervalField
	SyncRegistryField
	PoolSizeField
	ModelsField
	LogLevelField
	LogFileField
)

const (
	DefaultAPI      = configDefaults.DefaultBindAddr + ":8000" // Default API address
	DefaultDataDir  = configDefaults.DefaultDataDir            // Default data directory
	DefaultLogLevel = configDefaults.DefaultLogLevel           // Default log level
)

// Config holds all daemon configuration values
type Config struct {
	APIAddr string `yaml:"api"` // HTTP API bind address ("host:port" until validated)
	APIPort int    `yaml:"-"`   // HTTP API port (derived from APIAddr)

	Store      string `yaml:"store"`       // Document store backend: mongo or sqlite
	MongoURI   string `yaml:"mongo_uri"`   // Switch registry database
	HistoryURI string `yaml:"history_uri"` // Processed intents database
	DataDir    string `yaml:"data_dir"`    // Embedded sqlite files

	ControllerURL     string        `yaml:"controller"`         // ofctl REST endpoint
	ReconcileInterval time.Duration `yaml:"reconcile_interval"` // Time between reconciliation runs
	SyncRegistry      bool          `yaml:"sync_registry"`      // Write live state back into the registry

	PoolSize int      `yaml:"pool_size"` // Intent processors kept by the pool
	Models   []string `yaml:"models"`    // Models warmed at startup

	LogLevel string `yaml:"log_level"` // Log level: DEBUG, INFO, WARN, ERROR
	LogFile  string `yaml:"log_file"`  // Redirect logs to this file

	ConfigFile string `yaml:"-"` // YAML file loaded before validation

	// Fields explicitly set on the command line
	explicit map[ConfigField]bool
}

// Global configuration instance
var Global = Default()

// Default returns a configuration populated with built-in defaults.
func Default() Config {
	return Config{
		APIAddr:           DefaultAPI,
		Store:             configDefaults.DefaultStore,
		MongoURI:          configDefaults.DefaultMongoURI,
		HistoryURI:        configDefaults.DefaultHistoryURI,
		DataDir:           DefaultDataDir,
		ControllerURL:     configDefaults.DefaultControllerURL,
		ReconcileInterval: configDefaults.DefaultReconcileInterval,
		PoolSize:          configDefaults.DefaultPoolSize,
		Models:            configDefaults.DefaultModels(),
		LogLevel:          DefaultLogLevel,
	}
}

// SetExplicitlySet marks a configuration field as explicitly set by the user.
func (c *Config) SetExplicitlySet(field ConfigField, value bool) {
	if c.explicit == nil {
		c.explicit = make(map[ConfigField]bool)
	}
	c.explicit[field] = value
}

// IsExplicitlySet returns whether a configuration field was explicitly set by the user.
func (c *Config) IsExplicitlySet(field ConfigField) bool {
	return c.explicit[field]
}

// fileConfig mirrors Config with pointer fields so absent keys are
// distinguishable from zero values.
type fileConfig struct {
	APIAddr           *string   `yaml:"api"`
	Store             *string   `yaml:"store"`
	MongoURI          *string   `yaml:"mongo_uri"`
	HistoryURI        *string   `yaml:"history_uri"`
	DataDir           *string   `yaml:"data_dir"`
	ControllerURL     *string   `yaml:"controller"`
	ReconcileInterval *string   `yaml:"reconcile_interval"`
	SyncRegistry      *bool     `yaml:"sync_registry"`
	PoolSize          *int      `yaml:"pool_size"`
	Models            *[]string `yaml:"models"`
	LogLevel          *string   `yaml:"log_level"`
	LogFile           *string   `yaml:"log_file"`
}

// LoadFile applies a YAML configuration file to c. Fields set explicitly on
// the command line are left untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return c.applyYAML(data)
}

func (c *Config) applyYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(c, APIAddrField, &c.APIAddr, fc.APIAddr)
	setString(c, StoreField, &c.Store, fc.Store)
	setString(c, MongoURIField, &c.MongoURI, fc.MongoURI)
	setString(c, HistoryURIField, &c.HistoryURI, fc.HistoryURI)
	setString(c, DataDirField, &c.DataDir, fc.DataDir)
	setString(c, ControllerField, &c.ControllerURL, fc.ControllerURL)
	setString(c, LogLevelField, &c.LogLevel, fc.LogLevel)
	setString(c, LogFileField, &c.LogFile, fc.LogFile)

	if fc.ReconcileInterval != nil && !c.IsExplicitlySet(ReconcileIntervalField) {
		d, err := time.ParseDuration(*fc.ReconcileInterval)
		if err != nil {
			return fmt.Errorf("invalid reconcile_interval %q: %w", *fc.ReconcileInterval, err)
		}
		c.ReconcileInterval = d
	}
	if fc.SyncRegistry != nil && !c.IsExplicitlySet(SyncRegistryField) {
		c.SyncRegistry = *fc.SyncRegistry
	}
	if fc.PoolSize != nil && !c.IsExplicitlySet(PoolSizeField) {
		c.PoolSize = *fc.PoolSize
	}
	if fc.Models != nil && !c.IsExplicitlySet(ModelsField) {
		c.Models = append([]string(nil), (*fc.Models)...)
	}
	return nil
}

func setString(c *Config, field ConfigField, dst *string, src *string) {
	if src != nil && !c.IsExplicitlySet(field) {
		*dst = *src
	}
}
