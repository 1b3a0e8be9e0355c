package driver

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linjuya-lu/device_serial_go/internal/mqtt"
)

type message struct {
	topic   string
	payload []byte
}

// memMessenger 记录发布和订阅，不连接 broker
type memMessenger struct {
	mu           sync.Mutex
	published    []message
	handlers     map[string]func([]byte)
	unsubscribed []string
}

func (m *memMessenger) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, message{topic, payload})
	return nil
}

func (m *memMessenger) Subscribe(topic string, handler func([]byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *memMessenger) Unsubscribe(topics ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range topics {
		delete(m.handlers, t)
		m.unsubscribed = append(m.unsubscribed, t)
	}
	return nil
}

func (m *memMessenger) handler(topic string) func([]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[topic]
}

func (m *memMessenger) messages() []message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]message(nil), m.published...)
}

func (m *memMessenger) unsubs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unsubscribed...)
}

func TestPanelBridgedToMQTT(t *testing.T) {
	e := newTestEnv(t, nil)
	m := &memMessenger{handlers: map[string]func([]byte){}}
	e.d.attachBridge(m)

	require.NoError(t, e.d.AddDevice("panel", protocols("COM1", 9600), models.Unlocked))

	// write 主题上的 payload 原样写入串口
	write := m.handler("edgex/serial/COM1/write")
	require.NotNil(t, write)
	write([]byte("AT\r\n"))
	assert.Equal(t, "AT\r\n", e.port("COM1").sent())

	// 串口收到的数据发布到 data 主题
	e.port("COM1").feed([]byte{0x01, 0xff})
	require.Eventually(t, func() bool { return len(m.messages()) > 0 }, 2*time.Second, 5*time.Millisecond)
	msg := m.messages()[0]
	assert.Equal(t, "edgex/serial/COM1/data", msg.topic)
	var env mqtt.EdgexMessage
	require.NoError(t, json.Unmarshal(msg.payload, &env))
	assert.Equal(t, "COM1", env.Payload.Port)
	assert.Equal(t, []byte{0x01, 0xff}, env.Payload.Data)
	assert.Equal(t, "edgex/serial/COM1/data", env.ReceivedTopic)

	require.NoError(t, e.d.RemoveDevice("panel", nil))
	assert.Equal(t, []string{"edgex/serial/COM1/write"}, m.unsubs())
	assert.Nil(t, m.handler("edgex/serial/COM1/write"))
}

func TestLockedPanelIsNotSubscribed(t *testing.T) {
	e := newTestEnv(t, nil)
	m := &memMessenger{handlers: map[string]func([]byte){}}
	e.d.attachBridge(m)

	require.NoError(t, e.d.AddDevice("panel", protocols("COM1", 9600), models.Locked))
	assert.Nil(t, m.handler("edgex/serial/COM1/write"))
	require.NoError(t, e.d.RemoveDevice("panel", nil))
	assert.Empty(t, m.unsubs())
}
