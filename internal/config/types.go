package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Format 收发数据的编码选择（0 = 文本，1 = 十六进制）
type Format int

const (
	FormatText Format = iota
	FormatHex
)

var formatNames = map[Format]string{
	FormatText: "text",
	FormatHex:  "hex",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Known 判断是否为已定义的枚举值
func (f Format) Known() bool {
	_, ok := formatNames[f]
	return ok
}

// ParseFormat 接受数字代码或名称（"text"/"hex"，不区分大小写）
func ParseFormat(s string) (Format, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Format(n), nil
	}
	for f, name := range formatNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// Content 收发内容，按原始字节保存，可以不是合法的 UTF-8
type Content string

// SerialPortConfig 串口面板配置（最终版本的字段集合）
type SerialPortConfig struct {
	SerialPort    string  `json:"serialPort" yaml:"serialPort"`       // 串口名，例如 COM3 或 /dev/ttyUSB0
	BaudRate      int     `json:"baudRate" yaml:"baudRate"`           // 波特率
	AutoSend      bool    `json:"autoSend" yaml:"autoSend"`           // 是否自动发送
	AutoSendTimes int     `json:"autoSendTimes" yaml:"autoSendTimes"` // 自动发送次数/间隔
	SendFormat    Format  `json:"sendFormat" yaml:"sendFormat"`       // 发送编码
	SendContent   Content `json:"sendContent" yaml:"sendContent"`     // 发送内容
	ReturnContent Content `json:"returnContent" yaml:"returnContent"` // 返回内容
}

// LegacySerialPortConfig 最早的版本：接收侧拆成格式+内容两个字段，并带显示开关。
// 与 SerialPortConfig 是不同类型，不能互相赋值，只能通过 Upgrade 转换。
type LegacySerialPortConfig struct {
	SerialPort     string  `json:"serialPort" yaml:"serialPort"`
	BaudRate       int     `json:"baudRate" yaml:"baudRate"`
	AutoSend       bool    `json:"autoSend" yaml:"autoSend"`
	AutoSendTimes  int     `json:"autoSendTimes" yaml:"autoSendTimes"`
	SendFormat     Format  `json:"sendFormat" yaml:"sendFormat"`
	SendContent    Content `json:"sendContent" yaml:"sendContent"`
	ReceiveFormat  Format  `json:"receiveFormat" yaml:"receiveFormat"`
	ReceiveContent Content `json:"receiveContent" yaml:"receiveContent"`
	ShowSend       bool    `json:"showSend" yaml:"showSend"`
	ShowTime       bool    `json:"showTime" yaml:"showTime"`
}

// TransitionalSerialPortConfig 中间版本：接收侧已合并为 returnContent，但仍带显示开关
type TransitionalSerialPortConfig struct {
	SerialPort    string  `json:"serialPort" yaml:"serialPort"`
	BaudRate      int     `json:"baudRate" yaml:"baudRate"`
	AutoSend      bool    `json:"autoSend" yaml:"autoSend"`
	AutoSendTimes int     `json:"autoSendTimes" yaml:"autoSendTimes"`
	SendFormat    Format  `json:"sendFormat" yaml:"sendFormat"`
	SendContent   Content `json:"sendContent" yaml:"sendContent"`
	ReturnContent Content `json:"returnContent" yaml:"returnContent"`
	ShowSend      bool    `json:"showSend" yaml:"showSend"`
	ShowTime      bool    `json:"showTime" yaml:"showTime"`
}

// DisplayOptions 旧版本中存在、新版本已移除的显示相关字段。
// ReceiveFormat 只有最早的版本才有，其余情况为 nil。
type DisplayOptions struct {
	ReceiveFormat *Format `json:"receiveFormat,omitempty" yaml:"receiveFormat,omitempty"`
	ShowSend      bool    `json:"showSend" yaml:"showSend"`
	ShowTime      bool    `json:"showTime" yaml:"showTime"`
}

// Upgrade 把旧版本记录转换成最终版本，被移除的字段通过 DisplayOptions 返回
func (l LegacySerialPortConfig) Upgrade() (SerialPortConfig, DisplayOptions) {
	rf := l.ReceiveFormat
	return SerialPortConfig{
			SerialPort:    l.SerialPort,
			BaudRate:      l.BaudRate,
			AutoSend:      l.AutoSend,
			AutoSendTimes: l.AutoSendTimes,
			SendFormat:    l.SendFormat,
			SendContent:   l.SendContent,
			ReturnContent: l.ReceiveContent,
		}, DisplayOptions{
			ReceiveFormat: &rf,
			ShowSend:      l.ShowSend,
			ShowTime:      l.ShowTime,
		}
}

func (t TransitionalSerialPortConfig) Upgrade() (SerialPortConfig, DisplayOptions) {
	return SerialPortConfig{
			SerialPort:    t.SerialPort,
			BaudRate:      t.BaudRate,
			AutoSend:      t.AutoSend,
			AutoSendTimes: t.AutoSendTimes,
			SendFormat:    t.SendFormat,
			SendContent:   t.SendContent,
			ReturnContent: t.ReturnContent,
		}, DisplayOptions{
			ShowSend: t.ShowSend,
			ShowTime: t.ShowTime,
		}
}

// Parity 校验方式
type Parity string

const (
	ParityNone  Parity = "None"
	ParityOdd   Parity = "Odd"
	ParityEven  Parity = "Even"
	ParityMark  Parity = "Mark"
	ParitySpace Parity = "Space"
)

// FlowControl 流控方式
type FlowControl string

const (
	FlowControlNone     FlowControl = "None"
	FlowControlSoftware FlowControl = "Software"
	FlowControlHardware FlowControl = "Hardware"
)

// LineConfig 全局串口线路参数，Open 时生效
type LineConfig struct {
	DataBits    int         `json:"dataBits" yaml:"dataBits"`
	StopBits    int         `json:"stopBits" yaml:"stopBits"`
	Parity      Parity      `json:"parity" yaml:"parity"`
	FlowControl FlowControl `json:"flowControl" yaml:"flowControl"`
}

// DefaultLineConfig 8N1，无流控
func DefaultLineConfig() LineConfig {
	return LineConfig{
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
	}
}

// MQTTConfig MQTT 桥接参数；Broker 为空表示不启用
type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	ClientID         string `yaml:"clientId"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	TopicPrefix      string `yaml:"topicPrefix"`
	Qos              byte   `yaml:"qos"`
	KeepAliveSec     int    `yaml:"keepAliveSec"`
	ConnectTimeoutMs int    `yaml:"connectTimeoutMs"`
}

// AssistantConfig 配置文件顶层结构
type AssistantConfig struct {
	LogLevel string             `yaml:"LogLevel"`
	Line     LineConfig         `yaml:"Line"`
	Panels   []SerialPortConfig `yaml:"Panels"`
	MQTT     MQTTConfig         `yaml:"MQTT"`
}

// Panel 按串口名查找面板配置
func (c *AssistantConfig) Panel(port string) (SerialPortConfig, bool) {
	for _, p := range c.Panels {
		if p.SerialPort == port {
			return p, true
		}
	}
	return SerialPortConfig{}, false
}
