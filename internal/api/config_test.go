package api

import (
	"testing"
)

// TestConfig_Validate tests Config.Validate() across wiring mistakes
func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *Config { return newTestDeps(t).config }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty bind address", func(c *Config) { c.BindAddr = "" }, true},
		{"port out of range", func(c *Config) { c.BindPort = 70000 }, true},
		{"negative port", func(c *Config) { c.BindPort = -1 }, true},
		{"ephemeral port", func(c *Config) { c.BindPort = 0 }, false},
		{"empty default declarer", func(c *Config) { c.DefaultDeclarer = "" }, true},
		{"nil registry", func(c *Config) { c.Registry = nil }, true},
		{"nil history", func(c *Config) { c.History = nil }, true},
		{"nil intents", func(c *Config) { c.Intents = nil }, true},
		{"nil pool", func(c *Config) { c.Pool = nil }, true},
		{"nil reconciler", func(c *Config) { c.Reconciler = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid(t)
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestDefaultConfig tests DefaultConfig values
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BindAddr != "127.0.0.1" {
		t.Errorf("DefaultConfig() BindAddr = %q, want %q", config.BindAddr, "127.0.0.1")
	}
	if config.BindPort != 8000 {
		t.Errorf("DefaultConfig() BindPort = %d, want 8000", config.BindPort)
	}
	if config.DefaultDeclarer != "admin" {
		t.Errorf("DefaultConfig() DefaultDeclarer = %q, want \"admin\"", config.DefaultDeclarer)
	}
}
