package mqtt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
)

// Messenger 是 Bridge 需要的最小 MQTT 能力，*Client 实现了它
type Messenger interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func([]byte)) error
	Unsubscribe(topics ...string) error
}

// PortWriter 把数据写到指定串口
type PortWriter interface {
	Write(name string, data []byte) (int, error)
}

// Bridge 串口 ↔ MQTT：
//   - 串口收到的数据 → <prefix>/<port>/data（EdgexMessage JSON）
//   - <prefix>/<port>/write 收到的 payload → 原样写入串口
type Bridge struct {
	lc      logger.LoggingClient
	m       Messenger
	w       PortWriter
	prefix  string
	mu      sync.Mutex
	serving map[string]string // 串口名 → write 主题
}

func NewBridge(lc logger.LoggingClient, m Messenger, w PortWriter, prefix string) *Bridge {
	return &Bridge{
		lc:      lc,
		m:       m,
		w:       w,
		prefix:  strings.TrimSuffix(prefix, "/"),
		serving: make(map[string]string),
	}
}

// TopicSegment 把串口名转换成单个主题层级，例如 /dev/ttyUSB0 → dev_ttyUSB0
func TopicSegment(port string) string {
	s := strings.Trim(port, "/")
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}

func (b *Bridge) DataTopic(port string) string {
	return fmt.Sprintf("%s/%s/data", b.prefix, TopicSegment(port))
}

func (b *Bridge) WriteTopic(port string) string {
	return fmt.Sprintf("%s/%s/write", b.prefix, TopicSegment(port))
}

// PublishData 发布一段串口数据
func (b *Bridge) PublishData(port string, data []byte) error {
	msg := NewSerialMessage(port, data)
	msg.ReceivedTopic = b.DataTopic(port)
	body, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal serial message: %w", err)
	}
	return b.m.Publish(msg.ReceivedTopic, body)
}

// ServeWrites 订阅 write 主题；重复调用同一串口不会重复订阅
func (b *Bridge) ServeWrites(port string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.serving[port]; ok {
		return nil
	}
	topic := b.WriteTopic(port)
	err := b.m.Subscribe(topic, func(payload []byte) {
		if _, err := b.w.Write(port, payload); err != nil {
			b.lc.Errorf("mqtt write to %s failed: %v", port, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.serving[port] = topic
	b.lc.Debugf("serving writes for %s on %s", port, topic)
	return nil
}

// StopWrites 取消订阅；未订阅时什么也不做
func (b *Bridge) StopWrites(port string) error {
	b.mu.Lock()
	topic, ok := b.serving[port]
	delete(b.serving, port)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return b.m.Unsubscribe(topic)
}
