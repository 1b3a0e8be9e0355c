package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assistantYAML = `
LogLevel: DEBUG
Line:
  dataBits: 7
  parity: Even
Panels:
  - serialPort: /dev/ttyUSB0
    baudRate: 115200
    sendFormat: hex
    sendContent: "AA BB"
  - serialPort: /dev/ttyUSB1
    baudRate: 9600
MQTT:
  broker: tcp://localhost:1883
  qos: 1
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(assistantYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, LineConfig{DataBits: 7, StopBits: 1, Parity: ParityEven, FlowControl: FlowControlNone}, cfg.Line)
	require.Len(t, cfg.Panels, 2)
	assert.Equal(t, FormatHex, cfg.Panels[0].SendFormat)

	p, ok := cfg.Panel("/dev/ttyUSB1")
	require.True(t, ok)
	assert.Equal(t, 9600, p.BaudRate)
	_, ok = cfg.Panel("/dev/ttyS9")
	assert.False(t, ok)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.Qos)
	assert.Equal(t, defaultTopicPrefix, cfg.MQTT.TopicPrefix)
	assert.Equal(t, defaultKeepAliveSec, cfg.MQTT.KeepAliveSec)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "Panels:\n  - serialPort: COM1\n    baudRate: 9600\n    showTime: true\n",
		"bad panel":      "Panels:\n  - serialPort: COM1\n",
		"duplicate port": "Panels:\n  - {serialPort: COM1, baudRate: 9600}\n  - {serialPort: COM1, baudRate: 4800}\n",
		"bad line":       "Line:\n  stopBits: 4\n",
		"bad qos":        "MQTT:\n  broker: tcp://b:1883\n  qos: 3\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultLineConfig(), cfg.Line)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Panels)
}
