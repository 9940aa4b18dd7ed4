package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the wxpoll configuration file.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Console ConsoleConfig `yaml:"console"`
	Debug   bool          `yaml:"debug"`
}

// DeviceConfig selects and addresses the console link.
type DeviceConfig struct {
	// Type is "serial" or "tcp"
	Type string `yaml:"type"`

	// Port is the serial port path, e.g. /dev/ttyUSB0
	Port string `yaml:"port"`

	// Addr is the "host:port" of a networked console
	Addr string `yaml:"addr"`
}

// PollConfig shapes the polling loop.
type PollConfig struct {
	IntervalSec int  `yaml:"interval_sec"`
	Archives    bool `yaml:"archives"`
}

// ConsoleConfig holds the settings pushed to the console on startup.
type ConsoleConfig struct {
	LogIntervalMin int  `yaml:"log_interval_min"`
	ClearLog       bool `yaml:"clear_log"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Poll:    PollConfig{IntervalSec: 60, Archives: true},
		Console: ConsoleConfig{LogIntervalMin: 5},
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Device.Type {
	case "serial":
		if c.Device.Port == "" {
			return fmt.Errorf("device.port is required for a serial device")
		}
	case "tcp":
		if c.Device.Addr == "" {
			return fmt.Errorf("device.addr is required for a tcp device")
		}
	default:
		return fmt.Errorf("device.type must be \"serial\" or \"tcp\", got %q", c.Device.Type)
	}
	if c.Poll.IntervalSec <= 0 {
		return fmt.Errorf("poll.interval_sec must be positive")
	}
	if c.Console.LogIntervalMin <= 0 {
		return fmt.Errorf("console.log_interval_min must be positive")
	}
	return nil
}

func (c *Config) pollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSec) * time.Second
}
