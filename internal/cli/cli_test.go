package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linjuya-lu/device_serial_go/internal/serial"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPortsCmd(t *testing.T) {
	orig := listPorts
	t.Cleanup(func() { listPorts = orig })

	listPorts = func() ([]string, error) { return []string{"/dev/ttyACM0", "/dev/ttyUSB0"}, nil }
	out, err := run(t, "ports")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0\n/dev/ttyUSB0\n", out)

	listPorts = func() ([]string, error) { return nil, nil }
	out, err = run(t, "ports")
	require.NoError(t, err)
	assert.Empty(t, out)

	listPorts = func() ([]string, error) { return nil, errors.New("permission denied") }
	_, err = run(t, "ports")
	assert.ErrorContains(t, err, "permission denied")
}

func TestOptionsCmd(t *testing.T) {
	out, err := run(t, "options")
	require.NoError(t, err)
	for _, want := range []string{"baudRate", "115200", "Hex", "flowControl", "Hardware", "Space"} {
		assert.Contains(t, out, want)
	}
}

func TestCheckCmd(t *testing.T) {
	path := writeFile(t, "serial.yaml", `
Line: {parity: Odd}
Panels:
  - {serialPort: COM3, baudRate: 9600, sendFormat: hex, autoSend: true, autoSendTimes: 4}
MQTT: {broker: "tcp://localhost:1883"}
`)
	out, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "parity Odd")
	assert.Contains(t, out, "COM3")
	assert.Contains(t, out, "hex")
	assert.Contains(t, out, "mqtt: tcp://localhost:1883 (prefix edgex/serial)")

	bad := writeFile(t, "bad.yaml", "Panels:\n  - {serialPort: COM3, baudRate: -1}\n")
	_, err = run(t, "check", bad)
	assert.ErrorContains(t, err, "baudRate must be positive")
}

func TestUpgradeCmd(t *testing.T) {
	path := writeFile(t, "legacy.json", `{
  "serialPort": "COM1", "baudRate": 4800, "autoSend": false, "autoSendTimes": 0,
  "sendFormat": 0, "sendContent": "hi", "receiveFormat": 1, "receiveContent": "0D 0A",
  "showSend": true, "showTime": false
}`)
	out, err := run(t, "upgrade", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"returnContent": "0D 0A"`)
	assert.Contains(t, out, `"receiveFormat": 1`)
	assert.Contains(t, out, `"showSend": true`)
	assert.NotContains(t, out, "receiveContent")

	assert.Contains(t, out, `"from": "legacy"`)

	mid := writeFile(t, "transitional.json", `{
  "serialPort": "COM2", "baudRate": 9600, "autoSend": true, "autoSendTimes": 3,
  "sendFormat": 1, "sendContent": "01 03", "returnContent": "ok",
  "showSend": false, "showTime": true
}`)
	out, err = run(t, "upgrade", mid)
	require.NoError(t, err)
	assert.Contains(t, out, `"from": "transitional"`)
	assert.Contains(t, out, `"returnContent": "ok"`)
	assert.Contains(t, out, `"showTime": true`)
	assert.NotContains(t, out, "receiveFormat")

	current := writeFile(t, "current.json", `{"serialPort":"COM1","baudRate":4800,"autoSend":false,"autoSendTimes":0,"sendFormat":0,"sendContent":"","returnContent":"x"}`)
	out, err = run(t, "upgrade", current)
	require.NoError(t, err)
	assert.Contains(t, out, `"from": "current"`)
	assert.Contains(t, out, `"returnContent": "x"`)

	partial := writeFile(t, "partial.json", `{"serialPort":"COM1","baudRate":4800,"returnContent":"x"}`)
	_, err = run(t, "upgrade", partial)
	assert.ErrorContains(t, err, "missing")
}

type echoPort struct {
	name    string
	mu      sync.Mutex
	pending []byte
	written []byte
}

func (p *echoPort) Open() error  { return nil }
func (p *echoPort) Close() error { return nil }
func (p *echoPort) Name() string { return p.name }

func (p *echoPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, b...)
	p.pending = append(p.pending, []byte("echo:")...)
	p.pending = append(p.pending, b...)
	return len(b), nil
}

func (p *echoPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func TestSendCmd(t *testing.T) {
	var port *echoPort
	var opened serial.PortConfig
	orig := newRegistry
	newRegistry = func(lc logger.LoggingClient) *serial.Registry {
		return serial.NewRegistryWithFactory(lc, func(pc serial.PortConfig) (serial.Port, error) {
			opened = pc
			port = &echoPort{name: pc.Name}
			return port, nil
		})
	}
	t.Cleanup(func() { newRegistry = orig })

	out, err := run(t, "send", "--port", "COM4", "--baud", "19200", "--parity", "Even", "--wait", "30ms", "AT\r\n")
	require.NoError(t, err)
	assert.Equal(t, "echo:AT\r\n", out)
	assert.Equal(t, "AT\r\n", string(port.written))
	assert.Equal(t, 19200, opened.Baudrate)
	assert.Equal(t, "Even", string(opened.Line.Parity))

	_, err = run(t, "send", "--port", "COM4", "--parity", "Weird", "x")
	assert.ErrorContains(t, err, "parity")

	_, err = run(t, "send", "x")
	assert.Error(t, err, "port flag is required")
}

func TestMonitorCmd(t *testing.T) {
	orig := newRegistry
	newRegistry = func(lc logger.LoggingClient) *serial.Registry {
		return serial.NewRegistryWithFactory(lc, func(pc serial.PortConfig) (serial.Port, error) {
			return &echoPort{name: pc.Name, pending: []byte("$GPGGA,1\r\n")}, nil
		})
	}
	t.Cleanup(func() { newRegistry = orig })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"monitor", "--port", "/dev/ttyUSB0", "--baud", "4800"})
	require.NoError(t, root.ExecuteContext(ctx))
	assert.Equal(t, "$GPGGA,1\r\n", out.String())
}
