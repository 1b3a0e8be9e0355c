package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v2"
)

// UnmarshalJSON 同时接受数字代码和名称字符串
func (f *Format) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseFormat(s)
		if err != nil {
			return err
		}
		*f = v
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("format must be a number or name: %w", err)
	}
	*f = Format(n)
	return nil
}

// UnmarshalYAML yaml.v2 的解码钩子
func (f *Format) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int
	if err := unmarshal(&n); err == nil {
		*f = Format(n)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// contentBytes 非 UTF-8 内容在 JSON 中的表示形式
type contentBytes struct {
	Base64 []byte `json:"base64"`
}

// MarshalJSON 合法 UTF-8 输出为普通字符串，否则输出 {"base64": "..."}，保证字节不丢失
func (c Content) MarshalJSON() ([]byte, error) {
	if utf8.ValidString(string(c)) {
		return json.Marshal(string(c))
	}
	return json.Marshal(contentBytes{Base64: []byte(c)})
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var b contentBytes
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return fmt.Errorf("content object: %w", err)
		}
		if b.Base64 == nil {
			return fmt.Errorf("content object: missing base64")
		}
		*c = Content(b.Base64)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("content must be a string or {\"base64\": ...}: %w", err)
	}
	*c = Content(s)
	return nil
}

// Variant 面板记录的历史版本
type Variant int

const (
	VariantLegacy Variant = iota
	VariantTransitional
	VariantCurrent
)

func (v Variant) String() string {
	switch v {
	case VariantLegacy:
		return "legacy"
	case VariantTransitional:
		return "transitional"
	case VariantCurrent:
		return "current"
	}
	return "Variant(" + strconv.Itoa(int(v)) + ")"
}

// fieldKeys 取结构体各字段在指定编码下的键名
func fieldKeys(t reflect.Type, tag string) []string {
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// checkKeys 记录必须恰好包含 want 中的全部键
func checkKeys(present map[string]bool, want []string) error {
	wanted := make(map[string]bool, len(want))
	var missing []string
	for _, k := range want {
		wanted[k] = true
		if !present[k] {
			missing = append(missing, strconv.Quote(k))
		}
	}
	var unknown []string
	for k := range present {
		if !wanted[k] {
			unknown = append(unknown, strconv.Quote(k))
		}
	}
	sort.Strings(unknown)
	if len(unknown) > 0 {
		return fmt.Errorf("unknown field %s", strings.Join(unknown, ", "))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing field %s", strings.Join(missing, ", "))
	}
	return nil
}

func jsonKeys(data []byte) (map[string]bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("record must be a JSON object")
	}
	keys := make(map[string]bool, len(raw))
	for k := range raw {
		keys[k] = true
	}
	return keys, nil
}

// decodeStrictJSON 所有字段必填，不允许多余字段
func decodeStrictJSON(data []byte, out interface{}) error {
	keys, err := jsonKeys(data)
	if err != nil {
		return err
	}
	if err := checkKeys(keys, fieldKeys(reflect.TypeOf(out).Elem(), "json")); err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// EncodeJSON 序列化面板配置
func EncodeJSON(c SerialPortConfig) ([]byte, error) {
	return json.Marshal(c)
}

// DecodeJSON 反序列化面板配置；缺字段或出现旧版本字段（例如 receiveContent）都视为错误
func DecodeJSON(data []byte) (SerialPortConfig, error) {
	var c SerialPortConfig
	if err := decodeStrictJSON(data, &c); err != nil {
		return SerialPortConfig{}, fmt.Errorf("decode serial port config: %w", err)
	}
	return c, nil
}

// DecodeLegacyJSON 反序列化最早版本的记录
func DecodeLegacyJSON(data []byte) (LegacySerialPortConfig, error) {
	var c LegacySerialPortConfig
	if err := decodeStrictJSON(data, &c); err != nil {
		return LegacySerialPortConfig{}, fmt.Errorf("decode legacy serial port config: %w", err)
	}
	return c, nil
}

// DecodeTransitionalJSON 反序列化中间版本的记录
func DecodeTransitionalJSON(data []byte) (TransitionalSerialPortConfig, error) {
	var c TransitionalSerialPortConfig
	if err := decodeStrictJSON(data, &c); err != nil {
		return TransitionalSerialPortConfig{}, fmt.Errorf("decode transitional serial port config: %w", err)
	}
	return c, nil
}

// UpgradeJSON 按字段识别记录版本，严格解码后转换为最终版本
func UpgradeJSON(data []byte) (SerialPortConfig, DisplayOptions, Variant, error) {
	keys, err := jsonKeys(data)
	if err != nil {
		return SerialPortConfig{}, DisplayOptions{}, 0, fmt.Errorf("decode serial port config: %w", err)
	}
	switch {
	case keys["receiveFormat"] || keys["receiveContent"]:
		l, err := DecodeLegacyJSON(data)
		if err != nil {
			return SerialPortConfig{}, DisplayOptions{}, VariantLegacy, err
		}
		c, d := l.Upgrade()
		return c, d, VariantLegacy, nil
	case keys["showSend"] || keys["showTime"]:
		t, err := DecodeTransitionalJSON(data)
		if err != nil {
			return SerialPortConfig{}, DisplayOptions{}, VariantTransitional, err
		}
		c, d := t.Upgrade()
		return c, d, VariantTransitional, nil
	}
	c, err := DecodeJSON(data)
	return c, DisplayOptions{}, VariantCurrent, err
}

// EncodeYAML 非 UTF-8 内容由 yaml.v2 以 !!binary 输出
func EncodeYAML(c SerialPortConfig) ([]byte, error) {
	return yaml.Marshal(c)
}

func DecodeYAML(data []byte) (SerialPortConfig, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SerialPortConfig{}, fmt.Errorf("decode serial port config: %w", err)
	}
	keys := make(map[string]bool, len(raw))
	for k := range raw {
		keys[k] = true
	}
	if err := checkKeys(keys, fieldKeys(reflect.TypeOf(SerialPortConfig{}), "yaml")); err != nil {
		return SerialPortConfig{}, fmt.Errorf("decode serial port config: %w", err)
	}
	var c SerialPortConfig
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return SerialPortConfig{}, fmt.Errorf("decode serial port config: %w", err)
	}
	return c, nil
}
