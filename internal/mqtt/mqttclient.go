package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

// ClientOptions 配置 MQTT 客户端行为
// Broker: tcp://host:port
// ClientID: 客户端标识
// Username/Password: 可选认证
// KeepAlive: 心跳间隔
// ConnectTimeout: 连接超时
// DefaultQos/DefaultRetain: 默认发布参数
type ClientOptions struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	DefaultQos     byte
	DefaultRetain  bool
}

// OptionsFromConfig 把配置文件中的 MQTT 段转换成 ClientOptions
func OptionsFromConfig(c config.MQTTConfig) ClientOptions {
	return ClientOptions{
		Broker:         c.Broker,
		ClientID:       c.ClientID,
		Username:       c.Username,
		Password:       c.Password,
		KeepAlive:      time.Duration(c.KeepAliveSec) * time.Second,
		ConnectTimeout: time.Duration(c.ConnectTimeoutMs) * time.Millisecond,
		DefaultQos:     c.Qos,
	}
}

// Client 封装 Paho MQTT 客户端，只收发原始字节
type Client struct {
	inner paho.Client
	opts  ClientOptions
	mu    sync.Mutex
}

// newPahoClient 可在测试中替换
var newPahoClient = paho.NewClient

// NewClient 创建一个新的 MQTT 客户端并连接到 Broker。
// 连接失败时会断开客户端，停止 ConnectRetry 的后台重试。
func NewClient(opts ClientOptions) (*Client, error) {
	p := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetKeepAlive(opts.KeepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if opts.Username != "" {
		p.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		p.SetPassword(opts.Password)
	}
	c := &Client{opts: opts}
	c.inner = newPahoClient(p)
	tok := c.inner.Connect()
	if !tok.WaitTimeout(opts.ConnectTimeout) {
		c.inner.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect timeout after %s", opts.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		c.inner.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.Broker, err)
	}
	return c, nil
}

// Publish 发布原始字节到指定主题
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok := c.inner.Publish(topic, c.opts.DefaultQos, c.opts.DefaultRetain, payload)
	tok.Wait()
	return tok.Error()
}

// Subscribe 订阅主题，handler 接收原始字节
func (c *Client) Subscribe(topic string, handler func([]byte)) error {
	tok := c.inner.Subscribe(topic, c.opts.DefaultQos, func(_ paho.Client, m paho.Message) {
		handler(m.Payload())
	})
	tok.Wait()
	return tok.Error()
}

func (c *Client) Unsubscribe(topics ...string) error {
	tok := c.inner.Unsubscribe(topics...)
	tok.Wait()
	return tok.Error()
}

// Disconnect 断开与 Broker 的连接
func (c *Client) Disconnect(quiesce uint) {
	c.inner.Disconnect(quiesce)
}
