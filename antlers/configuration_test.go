package antlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero node id", func(c *Config) { c.Node.ID = 0 }},
		{"broadcast node id", func(c *Config) { c.Node.ID = BroadcastID }},
		{"unknown role", func(c *Config) { c.Node.Role = "repeater" }},
		{"short key", func(c *Config) { c.Radio.EncryptKey = "tooshort" }},
		{"no radio port", func(c *Config) { c.Radio.Port = "" }},
		{"tcp without remote", func(c *Config) { c.Upstream.Mode = UpstreamTCP }},
		{"serial without port", func(c *Config) { c.Upstream.Mode = UpstreamSerial }},
		{"unknown mode", func(c *Config) { c.Upstream.Mode = "udp" }},
		{"unknown status format", func(c *Config) { c.Status.Format = "xml" }},
		{"zero repeat", func(c *Config) { c.Timers.RepeatInterval = 0 }},
		{"negative window", func(c *Config) { c.Timers.SendWindow = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted the config")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "antlers.yaml")
	data := `
node:
  id: 42
  role: relay
radio:
  port: stub
  encrypt_key: sampleEncryptKey
upstream:
  mode: tcp
  remote: showcontrol.local:7001
timers:
  repeat_interval: 50ms
  send_window: 10s
status:
  format: lines
  include_rssi: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Node.ID != 42 || cfg.Node.Role != RoleRelay {
		t.Errorf("node = %+v", cfg.Node)
	}
	if cfg.Timers.RepeatInterval != 50*time.Millisecond || cfg.Timers.SendWindow != 10*time.Second {
		t.Errorf("timers = %+v", cfg.Timers)
	}
	// unset fields keep their defaults
	if !cfg.Radio.Reconnect || cfg.Node.NetworkID != 150 || cfg.Timers.Tick != time.Millisecond || cfg.Upstream.MaxLine != DefaultMaxLine {
		t.Errorf("defaults lost: %+v", cfg)
	}

	opts := cfg.NodeOptions()
	if opts.NodeID != 42 || opts.StatusFormat != StatusLines || !opts.IncludeRSSI {
		t.Errorf("NodeOptions() = %+v", opts)
	}

	settings := cfg.RadioSettings()
	if settings.NodeID != 42 || string(settings.Key) != "sampleEncryptKey" || settings.Frequency != 915000000 {
		t.Errorf("RadioSettings() = %+v", settings)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() of a missing file succeeded")
	}
}
