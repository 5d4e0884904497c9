package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Prometheus  PrometheusConfig  `yaml:"prometheus"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// ServerConfig contains the HTTP/WebSocket server settings
type ServerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Listen         string `yaml:"listen"`          // host:port (default: :8873)
	StreamInterval int    `yaml:"stream_interval"` // Snapshot stream interval in milliseconds (default: 100)
}

// AcquisitionConfig contains the acquisition engine settings
type AcquisitionConfig struct {
	SampleRate      int     `yaml:"sample_rate"` // Input IQ sample rate in Hz (default: 2048000)
	Format          string  `yaml:"format"`      // Input sample format: u8 or s8 (default: u8)
	Gain            float64 `yaml:"gain"`        // Extra gain applied during dequantization (default: 1.0)
	AlwaysCorrelate bool    `yaml:"always_correlate"`
	CodeRate        int     `yaml:"code_rate"`   // PRN chip rate in Hz (default: 1000)
	MaxDoppler      int     `yaml:"max_doppler"` // One-sided Doppler search range in Hz (default: 6000)
}

// PrometheusConfig contains metrics endpoint settings
type PrometheusConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MQTTConfig contains the acquisition summary publisher settings
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"` // e.g. tcp://localhost:1883
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`     // default: gpscorr
	IntervalSeconds int    `yaml:"interval_seconds"` // Publish interval (default: 10)
}

// DefaultConfig returns the configuration used when no config file is
// present.
func DefaultConfig() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8873"
	}
	if c.Server.StreamInterval == 0 {
		c.Server.StreamInterval = 100
	}
	if c.Acquisition.SampleRate == 0 {
		c.Acquisition.SampleRate = 2048000
	}
	if c.Acquisition.Format == "" {
		c.Acquisition.Format = "u8"
	}
	if c.Acquisition.Gain == 0 {
		c.Acquisition.Gain = 1.0
	}
	if c.Acquisition.CodeRate == 0 {
		c.Acquisition.CodeRate = 1000
	}
	if c.Acquisition.MaxDoppler == 0 {
		c.Acquisition.MaxDoppler = 6000
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "gpscorr"
	}
	if c.MQTT.IntervalSeconds == 0 {
		c.MQTT.IntervalSeconds = 10
	}
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c *Config) Validate() error {
	if c.Acquisition.SampleRate <= 0 {
		return fmt.Errorf("acquisition.sample_rate must be positive, got %d", c.Acquisition.SampleRate)
	}
	if c.Acquisition.CodeRate <= 0 {
		return fmt.Errorf("acquisition.code_rate must be positive, got %d", c.Acquisition.CodeRate)
	}
	if c.Acquisition.MaxDoppler < 0 {
		return fmt.Errorf("acquisition.max_doppler must not be negative, got %d", c.Acquisition.MaxDoppler)
	}
	if c.Acquisition.Gain <= 0 {
		return fmt.Errorf("acquisition.gain must be positive, got %g", c.Acquisition.Gain)
	}
	if c.Acquisition.Format != "u8" && c.Acquisition.Format != "s8" {
		return fmt.Errorf("acquisition.format must be u8 or s8, got %q", c.Acquisition.Format)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}
