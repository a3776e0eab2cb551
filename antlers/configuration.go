package antlers

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config everything a node needs, loaded from YAML
type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Radio    RadioConfig    `yaml:"radio"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Timers   TimersConfig   `yaml:"timers"`
	Status   StatusConfig   `yaml:"status"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// NodeConfig identity of this node on the radio network
type NodeConfig struct {
	ID        byte `yaml:"id"`
	NetworkID byte `yaml:"network_id"`
	Role      Role `yaml:"role"`
}

// RadioConfig the serial attached radio modem
type RadioConfig struct {
	// Port serial device of the radio modem, "stub" for an in-memory radio
	Port             string        `yaml:"port"`
	BaudRate         int           `yaml:"baud_rate"`
	Frequency        uint32        `yaml:"frequency"`
	EncryptKey       string        `yaml:"encrypt_key"`
	HighPower        bool          `yaml:"high_power"`
	ATCRSSI          int8          `yaml:"atc_rssi"`
	RequestACK       bool          `yaml:"request_ack"`
	// Reconnect reopen the modem port when it goes away
	Reconnect        bool          `yaml:"reconnect"`
	ConfigureTimeout time.Duration `yaml:"configure_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig link to the show-control host
type UpstreamConfig struct {
	// Mode one of stdio, tcp, tls, serial
	Mode         string        `yaml:"mode"`
	Remote       string        `yaml:"remote"`
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baud_rate"`
	Reconnect    bool          `yaml:"reconnect"`
	MaxLine      int           `yaml:"max_line"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TimersConfig repeat-send period, send window and loop tick
type TimersConfig struct {
	RepeatInterval time.Duration `yaml:"repeat_interval"`
	SendWindow     time.Duration `yaml:"send_window"`
	Tick           time.Duration `yaml:"tick"`
}

// StatusConfig rendering of relayed status lines
type StatusConfig struct {
	Format      StatusFormat `yaml:"format"`
	IncludeRSSI bool         `yaml:"include_rssi"`
}

// LogConfig logrus level, formatter and destination
type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// RedisConfig optional status publisher
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Channel  string `yaml:"channel"`
}

// MonitorConfig prometheus endpoint
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

// upstream modes
const (
	UpstreamStdio  = "stdio"
	UpstreamTCP    = "tcp"
	UpstreamTLS    = "tls"
	UpstreamSerial = "serial"
)

// StubPort radio port value selecting the in-memory radio
const StubPort = "stub"

// LoadConfig read `path`, unset fields keep their defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config:read %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config:parse %s: %w", path, err)
	}

	return config, nil
}

// DefaultConfig gateway node 1 on network 150 at 915 MHz, talking to stdio
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:        1,
			NetworkID: 150,
			Role:      RoleGateway,
		},
		Radio: RadioConfig{
			Port:             "/dev/ttyUSB0",
			BaudRate:         115200,
			Frequency:        915000000,
			HighPower:        true,
			ATCRSSI:          -80,
			Reconnect:        true,
			ConfigureTimeout: 2 * time.Second,
			WriteTimeout:     100 * time.Millisecond,
		},
		Upstream: UpstreamConfig{
			Mode:         UpstreamStdio,
			BaudRate:     115200,
			Reconnect:    true,
			MaxLine:      DefaultMaxLine,
			WriteTimeout: time.Second,
		},
		Timers: TimersConfig{
			RepeatInterval: 30 * time.Millisecond,
			SendWindow:     20 * time.Second,
			Tick:           time.Millisecond,
		},
		Status: StatusConfig{
			Format: StatusJoined,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
			Channel:  "antlers:status",
		},
		Monitor: MonitorConfig{
			MetricsPort: 9090,
		},
	}
}

// Validate reject settings the radio or the node cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Node.ID == 0 || c.Node.ID == BroadcastID {
		errs = append(errs, fmt.Errorf("node.id %d is reserved", c.Node.ID))
	}

	switch c.Node.Role {
	case RoleGateway, RoleRelay:
	default:
		errs = append(errs, fmt.Errorf("node.role %q unknown", c.Node.Role))
	}

	if n := len(c.Radio.EncryptKey); n != 0 && n != 16 {
		errs = append(errs, fmt.Errorf("radio.encrypt_key must be 16 bytes, got %d", n))
	}
	if c.Radio.Port == "" {
		errs = append(errs, errors.New("radio.port missing"))
	}

	switch c.Upstream.Mode {
	case UpstreamStdio:
	case UpstreamTCP, UpstreamTLS:
		if c.Upstream.Remote == "" {
			errs = append(errs, fmt.Errorf("upstream.remote missing for mode %s", c.Upstream.Mode))
		}
	case UpstreamSerial:
		if c.Upstream.Port == "" {
			errs = append(errs, errors.New("upstream.port missing for mode serial"))
		}
	default:
		errs = append(errs, fmt.Errorf("upstream.mode %q unknown", c.Upstream.Mode))
	}

	switch c.Status.Format {
	case StatusJoined, StatusLines:
	default:
		errs = append(errs, fmt.Errorf("status.format %q unknown", c.Status.Format))
	}

	if c.Timers.RepeatInterval <= 0 || c.Timers.SendWindow <= 0 || c.Timers.Tick <= 0 {
		errs = append(errs, errors.New("timers must be positive"))
	}

	return errors.Join(errs...)
}

// RadioSettings settings handed to the modem on startup
func (c *Config) RadioSettings() RadioSettings {
	return RadioSettings{
		NodeID:    c.Node.ID,
		NetworkID: c.Node.NetworkID,
		Frequency: c.Radio.Frequency,
		HighPower: c.Radio.HighPower,
		ATCRSSI:   c.Radio.ATCRSSI,
		Key:       []byte(c.Radio.EncryptKey),
	}
}

// NodeOptions runtime options for the node core
func (c *Config) NodeOptions() Options {
	return Options{
		NodeID:         c.Node.ID,
		Role:           c.Node.Role,
		RepeatInterval: c.Timers.RepeatInterval,
		SendWindow:     c.Timers.SendWindow,
		StatusFormat:   c.Status.Format,
		IncludeRSSI:    c.Status.IncludeRSSI,
		RequestACK:     c.Radio.RequestACK,
	}
}
