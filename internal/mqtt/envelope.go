package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const apiVersion = "v3"

// EdgexMessage 是 EdgeX MessageBus 的通用消息格式
type EdgexMessage struct {
	ApiVersion    string        `json:"apiVersion"`
	ReceivedTopic string        `json:"receivedTopic,omitempty"`
	CorrelationID string        `json:"correlationID"`
	RequestID     string        `json:"requestID"`
	ErrorCode     int           `json:"errorCode"`
	Payload       SerialPayload `json:"payload"`
	ContentType   string        `json:"contentType"`
}

// SerialPayload 是 payload 部分的结构
type SerialPayload struct {
	Port      string `json:"port"`
	Timestamp int64  `json:"timestamp"` // Unix 纳秒
	Data      []byte `json:"data"`      // JSON 中为 Base64
}

// now 可在测试中替换
var now = time.Now

// NewSerialMessage 组装一条串口数据消息
func NewSerialMessage(port string, data []byte) EdgexMessage {
	return EdgexMessage{
		ApiVersion:    apiVersion,
		CorrelationID: uuid.NewString(),
		RequestID:     uuid.NewString(),
		Payload: SerialPayload{
			Port:      port,
			Timestamp: now().UnixNano(),
			Data:      data,
		},
		ContentType: "application/json",
	}
}

func (m EdgexMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
