package config

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
)

func invalid(format string, args ...interface{}) error {
	return errors.NewCommonEdgeX(errors.KindContractInvalid, fmt.Sprintf(format, args...), nil)
}

// Validate 检查面板配置是否可以交给串口层使用
func (c SerialPortConfig) Validate() error {
	if c.SerialPort == "" {
		return invalid("serialPort is required")
	}
	if c.BaudRate <= 0 {
		return invalid("baudRate must be positive, got %d", c.BaudRate)
	}
	if c.AutoSendTimes < 0 {
		return invalid("autoSendTimes must not be negative, got %d", c.AutoSendTimes)
	}
	if !c.SendFormat.Known() {
		return invalid("unknown sendFormat %d", int(c.SendFormat))
	}
	return nil
}

// Validate 只允许串口硬件常见的取值
func (l LineConfig) Validate() error {
	if l.DataBits < 5 || l.DataBits > 8 {
		return invalid("dataBits must be 5..8, got %d", l.DataBits)
	}
	if l.StopBits != 1 && l.StopBits != 2 {
		return invalid("stopBits must be 1 or 2, got %d", l.StopBits)
	}
	if _, ok := ParityOptions.ValueOf(string(l.Parity)); !ok {
		return invalid("unknown parity %q", l.Parity)
	}
	if _, ok := FlowControlOptions.ValueOf(string(l.FlowControl)); !ok {
		return invalid("unknown flowControl %q", l.FlowControl)
	}
	return nil
}

// Validate 校验整个配置文件，面板串口名不允许重复
func (c *AssistantConfig) Validate() error {
	if err := c.Line.Validate(); err != nil {
		return errors.NewCommonEdgeX(errors.Kind(err), "Line", err)
	}
	seen := make(map[string]struct{}, len(c.Panels))
	for i, p := range c.Panels {
		if err := p.Validate(); err != nil {
			return errors.NewCommonEdgeX(errors.Kind(err), fmt.Sprintf("Panels[%d]", i), err)
		}
		if _, dup := seen[p.SerialPort]; dup {
			return invalid("Panels[%d]: duplicate serialPort %q", i, p.SerialPort)
		}
		seen[p.SerialPort] = struct{}{}
	}
	if c.MQTT.Broker != "" && c.MQTT.Qos > 2 {
		return invalid("MQTT qos must be 0..2, got %d", c.MQTT.Qos)
	}
	return nil
}
