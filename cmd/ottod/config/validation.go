// Package config handles configuration validation for the otto daemon.
//
// Validation runs once before startup and turns raw flag, file and
// environment values into normalized settings: the API address is split into
// host and port, the model list is trimmed and checked against the model
// catalog, and store settings are checked for the selected backend only.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	configDefaults "github.com/concave-dev/otto/internal/config"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/models"
	"github.com/concave-dev/otto/internal/validate"
)

// Environment variables read by InitializeConfig.
const (
	EnvDebug         = "DEBUG"
	EnvMongoURI      = "OTTO_MONGO_URI"
	EnvHistoryURI    = "OTTO_HISTORY_URI"
	EnvControllerURL = "OTTO_CONTROLLER_URL"
	EnvPoolSize      = "OTTO_POOL_SIZE"
	EnvModels        = "OTTO_MODELS"
)

// InitializeConfig applies the config file and environment variable
// overrides to Global. Explicit flags are never overridden.
func InitializeConfig() error {
	return Global.initialize(os.Getenv)
}

func (c *Config) initialize(getenv func(string) string) error {
	if c.ConfigFile != "" {
		if err := c.LoadFile(c.ConfigFile); err != nil {
			return err
		}
		logging.Info("Loaded configuration file %s", c.ConfigFile)
	}

	if getenv(EnvDebug) == "true" && !c.IsExplicitlySet(LogLevelField) {
		c.LogLevel = "DEBUG"
		logging.Info("DEBUG environment variable detected, setting log level to DEBUG")
	}

	c.envString(getenv, EnvMongoURI, MongoURIField, &c.MongoURI)
	c.envString(getenv, EnvHistoryURI, HistoryURIField, &c.HistoryURI)
	c.envString(getenv, EnvControllerURL, ControllerField, &c.ControllerURL)

	if v := getenv(EnvPoolSize); v != "" && !c.IsExplicitlySet(PoolSizeField) {
		if size, err := strconv.Atoi(v); err == nil {
			c.PoolSize = size
			logging.Info("%s environment variable detected, setting pool size to %d", EnvPoolSize, size)
		} else {
			logging.Warn("Invalid %s environment variable '%s', using: %d", EnvPoolSize, v, c.PoolSize)
		}
	}

	if v := getenv(EnvModels); v != "" && !c.IsExplicitlySet(ModelsField) {
		c.Models = strings.Split(v, ",")
		logging.Info("%s environment variable detected, warming models %v", EnvModels, c.Models)
	}
	return nil
}

func (c *Config) envString(getenv func(string) string, key string, field ConfigField, dst *string) {
	if v := getenv(key); v != "" && !c.IsExplicitlySet(field) {
		*dst = v
		logging.Info("%s environment variable detected", key)
	}
}

// ValidateConfig validates and normalizes Global before services start.
func ValidateConfig() error {
	return Global.validate()
}

func (c *Config) validate() error {
	if err := logging.ValidateLogLevel(c.LogLevel); err != nil {
		return err
	}

	apiNetAddr, err := validate.ParseBindAddress(c.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", c.APIAddr, err)
		return fmt.Errorf("invalid API address: %w", err)
	}
	if err := validate.ValidatePortRange(apiNetAddr.Port); err != nil {
		logging.Error("API port cannot be 0 (auto-assigned)")
		return fmt.Errorf("API address requires specific port (not 0): %w", err)
	}
	c.APIAddr = apiNetAddr.Host
	c.APIPort = apiNetAddr.Port

	switch c.Store {
	case configDefaults.StoreMongo:
		if err := validate.ValidateMongoURI(c.MongoURI); err != nil {
			return fmt.Errorf("invalid --mongo-uri: %w", err)
		}
		if err := validate.ValidateMongoURI(c.HistoryURI); err != nil {
			return fmt.Errorf("invalid --history-uri: %w", err)
		}
	case configDefaults.StoreSQLite:
		if err := validate.ValidateRequiredString(c.DataDir, "data directory"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid store '%s' (must be %s or %s)",
			c.Store, configDefaults.StoreMongo, configDefaults.StoreSQLite)
	}

	if err := validate.ValidateControllerURL(c.ControllerURL); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(c.ReconcileInterval, "reconcile interval"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveInt(c.PoolSize, "pool size"); err != nil {
		return err
	}

	trimmed := make([]string, len(c.Models))
	for i, m := range c.Models {
		trimmed[i] = strings.TrimSpace(m)
	}
	if err := validate.ValidateModelList(trimmed); err != nil {
		return fmt.Errorf("invalid --models: %w", err)
	}
	known := models.Identities()
	for _, m := range trimmed {
		if !slices.Contains(known, m) {
			return fmt.Errorf("unknown model '%s' (known: %s)", m, strings.Join(known, ", "))
		}
	}
	c.Models = trimmed

	if c.PoolSize < len(c.Models) {
		logging.Warn("Pool size %d is smaller than the model list; some models start cold", c.PoolSize)
	}
	return nil
}
