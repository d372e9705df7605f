// Package config tests cover the layering of flags, the YAML file and
// environment variables, plus validation and normalization of the result.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configDefaults "github.com/concave-dev/otto/internal/config"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidateDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.validate())

	assert.Equal(t, "127.0.0.1", c.APIAddr)
	assert.Equal(t, 8000, c.APIPort)
	assert.Equal(t, []string{"gpt-4o", "deepseek-chat"}, c.Models)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains string
	}{
		{"port_zero", func(c *Config) { c.APIAddr = "127.0.0.1:0" }, "not 0"},
		{"hostname", func(c *Config) { c.APIAddr = "localhost:8000" }, "invalid API address"},
		{"bad_level", func(c *Config) { c.LogLevel = "TRACE" }, "TRACE"},
		{"bad_store", func(c *Config) { c.Store = "redis" }, "invalid store"},
		{"bad_mongo_uri", func(c *Config) { c.MongoURI = "postgres://x" }, "--mongo-uri"},
		{"bad_history_uri", func(c *Config) { c.HistoryURI = "" }, "--history-uri"},
		{"sqlite_no_dir", func(c *Config) { c.Store = configDefaults.StoreSQLite; c.DataDir = "" }, "data directory"},
		{"bad_controller", func(c *Config) { c.ControllerURL = "localhost:8080" }, "controller URL"},
		{"zero_interval", func(c *Config) { c.ReconcileInterval = 0 }, "reconcile interval"},
		{"zero_pool", func(c *Config) { c.PoolSize = 0 }, "pool size"},
		{"no_models", func(c *Config) { c.Models = nil }, "--models"},
		{"duplicate_models", func(c *Config) { c.Models = []string{"gpt-4o", " gpt-4o"} }, "duplicate"},
		{"unknown_model", func(c *Config) { c.Models = []string{"gpt-5"} }, "unknown model 'gpt-5'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)

			err := c.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestValidateSQLiteIgnoresMongoURIs(t *testing.T) {
	c := Default()
	c.Store = configDefaults.StoreSQLite
	c.MongoURI = ""
	c.HistoryURI = ""

	assert.NoError(t, c.validate())
}

func TestValidateTrimsModels(t *testing.T) {
	c := Default()
	c.Models = []string{" llama", "claude-3-5-sonnet "}

	require.NoError(t, c.validate())
	assert.Equal(t, []string{"llama", "claude-3-5-sonnet"}, c.Models)
}

func TestInitializeEnvironmentOverrides(t *testing.T) {
	c := Default()
	err := c.initialize(envMap(map[string]string{
		EnvDebug:         "true",
		EnvMongoURI:      "mongodb://db:27017",
		EnvHistoryURI:    "mongodb://history:27017",
		EnvControllerURL: "http://ryu:8080",
		EnvPoolSize:      "4",
		EnvModels:        "gpt-4o,llama",
	}))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", c.LogLevel)
	assert.Equal(t, "mongodb://db:27017", c.MongoURI)
	assert.Equal(t, "mongodb://history:27017", c.HistoryURI)
	assert.Equal(t, "http://ryu:8080", c.ControllerURL)
	assert.Equal(t, 4, c.PoolSize)
	assert.Equal(t, []string{"gpt-4o", "llama"}, c.Models)
}

func TestInitializeExplicitFlagsWin(t *testing.T) {
	c := Default()
	c.PoolSize = 2
	c.LogLevel = "WARN"
	c.SetExplicitlySet(PoolSizeField, true)
	c.SetExplicitlySet(LogLevelField, true)

	require.NoError(t, c.initialize(envMap(map[string]string{
		EnvDebug:    "true",
		EnvPoolSize: "9",
	})))

	assert.Equal(t, 2, c.PoolSize)
	assert.Equal(t, "WARN", c.LogLevel)
}

func TestInitializeInvalidPoolSizeKeepsValue(t *testing.T) {
	c := Default()
	require.NoError(t, c.initialize(envMap(map[string]string{EnvPoolSize: "many"})))
	assert.Equal(t, configDefaults.DefaultPoolSize, c.PoolSize)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ottod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api: 0.0.0.0:9000
store: sqlite
data_dir: /var/lib/otto
reconcile_interval: 30s
sync_registry: true
pool_size: 8
models: [gpt-4o, claude-3-5-sonnet]
`), 0o644))

	c := Default()
	c.APIAddr = "127.0.0.1:8100"
	c.SetExplicitlySet(APIAddrField, true)
	c.ConfigFile = path

	require.NoError(t, c.initialize(envMap(nil)))

	assert.Equal(t, "127.0.0.1:8100", c.APIAddr, "explicit flag beats file")
	assert.Equal(t, configDefaults.StoreSQLite, c.Store)
	assert.Equal(t, "/var/lib/otto", c.DataDir)
	assert.Equal(t, 30*time.Second, c.ReconcileInterval)
	assert.True(t, c.SyncRegistry)
	assert.Equal(t, 8, c.PoolSize)
	assert.Equal(t, []string{"gpt-4o", "claude-3-5-sonnet"}, c.Models)
	assert.Equal(t, configDefaults.DefaultControllerURL, c.ControllerURL, "absent keys keep defaults")
}

func TestLoadFileErrors(t *testing.T) {
	c := Default()
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	assert.Error(t, c.applyYAML([]byte("reconcile_interval: soon")))
	assert.Error(t, c.applyYAML([]byte("pool_size: [1")))
}

func TestExplicitTracking(t *testing.T) {
	var c Config
	assert.False(t, c.IsExplicitlySet(StoreField))

	c.SetExplicitlySet(StoreField, true)
	assert.True(t, c.IsExplicitlySet(StoreField))
	assert.False(t, c.IsExplicitlySet(DataDirField))
}
