package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 2048000, config.Acquisition.SampleRate)
	assert.Equal(t, "u8", config.Acquisition.Format)
	assert.Equal(t, 1.0, config.Acquisition.Gain)
	assert.Equal(t, 1000, config.Acquisition.CodeRate)
	assert.Equal(t, 6000, config.Acquisition.MaxDoppler)
	assert.False(t, config.Server.Enabled)
	assert.Equal(t, ":8873", config.Server.Listen)
	require.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  enabled: true
  listen: ":9000"
acquisition:
  sample_rate: 2000000
  format: s8
  gain: 2.5
  always_correlate: true
prometheus:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, config.Server.Enabled)
	assert.Equal(t, ":9000", config.Server.Listen)
	assert.Equal(t, 2000000, config.Acquisition.SampleRate)
	assert.Equal(t, "s8", config.Acquisition.Format)
	assert.Equal(t, 2.5, config.Acquisition.Gain)
	assert.True(t, config.Acquisition.AlwaysCorrelate)
	assert.True(t, config.Prometheus.Enabled)
	// Unset fields pick up defaults.
	assert.Equal(t, 1000, config.Acquisition.CodeRate)
	assert.Equal(t, 100, config.Server.StreamInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	config.Acquisition.SampleRate = -1
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Acquisition.Format = "f32"
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Acquisition.Gain = -2
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.MQTT.Enabled = true
	assert.Error(t, config.Validate(), "mqtt without broker")
	config.MQTT.Broker = "tcp://localhost:1883"
	assert.NoError(t, config.Validate())
}
