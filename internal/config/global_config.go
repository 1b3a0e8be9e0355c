package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

const (
	defaultTopicPrefix      = "edgex/serial"
	defaultClientID         = "device-serial"
	defaultKeepAliveSec     = 60
	defaultConnectTimeoutMs = 10000
	defaultLogLevel         = "INFO"
)

// LoadConfig 从 YAML 文件读取配置，补默认值后校验
func LoadConfig(path string) (*AssistantConfig, error) {
	// 1. 读取文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig 与 LoadConfig 相同，但直接从内存解析
func ParseConfig(data []byte) (*AssistantConfig, error) {
	cfg := &AssistantConfig{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AssistantConfig) {
	def := DefaultLineConfig()
	if cfg.Line.DataBits == 0 {
		cfg.Line.DataBits = def.DataBits
	}
	if cfg.Line.StopBits == 0 {
		cfg.Line.StopBits = def.StopBits
	}
	if cfg.Line.Parity == "" {
		cfg.Line.Parity = def.Parity
	}
	if cfg.Line.FlowControl == "" {
		cfg.Line.FlowControl = def.FlowControl
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = defaultTopicPrefix
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = defaultClientID
	}
	if cfg.MQTT.KeepAliveSec == 0 {
		cfg.MQTT.KeepAliveSec = defaultKeepAliveSec
	}
	if cfg.MQTT.ConnectTimeoutMs == 0 {
		cfg.MQTT.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
}

// LineStore 进程内共享的线路参数，零值即为 8N1 无流控
type LineStore struct {
	mu   sync.RWMutex
	line *LineConfig
}

// Set 校验后整体替换
func (s *LineStore) Set(l LineConfig) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.line = &l
	return nil
}

// Get 返回当前线路参数的副本
func (s *LineStore) Get() LineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.line == nil {
		return DefaultLineConfig()
	}
	return *s.line
}
