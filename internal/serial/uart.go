package serial

import (
	"fmt"
	"io"

	"github.com/linjuya-lu/device_serial_go/internal/config"
	"github.com/tarm/serial"
)

// openPort 可在测试中替换
var openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(c)
}

// UARTPort 基于 tarm/serial 的全双工串口
type UARTPort struct {
	cfg    PortConfig
	handle io.ReadWriteCloser
}

func NewUARTPort(cfg PortConfig) *UARTPort {
	return &UARTPort{cfg: cfg}
}

func (u *UARTPort) Open() error {
	sc := &serial.Config{
		Name:        u.cfg.Name,
		Baud:        u.cfg.Baudrate,
		ReadTimeout: u.cfg.ReadTimeout,
		Size:        byte(u.cfg.Line.DataBits),
		Parity:      toTarmParity(u.cfg.Line.Parity),
		StopBits:    toTarmStopBits(u.cfg.Line.StopBits),
	}
	p, err := openPort(sc)
	if err != nil {
		return fmt.Errorf("open UART %s failed: %w", u.cfg.Name, err)
	}
	u.handle = p
	return nil
}

func (u *UARTPort) Close() error {
	if u.handle != nil {
		return u.handle.Close()
	}
	return nil
}

func (u *UARTPort) Read(p []byte) (int, error) {
	if u.handle == nil {
		return 0, fmt.Errorf("UART %s is not open", u.cfg.Name)
	}
	return u.handle.Read(p)
}

func (u *UARTPort) Write(p []byte) (int, error) {
	if u.handle == nil {
		return 0, fmt.Errorf("UART %s is not open", u.cfg.Name)
	}
	n, err := u.handle.Write(p)
	if err != nil {
		return n, fmt.Errorf("UART write failed: %w", err)
	}
	return n, nil
}

// Name 返回串口名
func (u *UARTPort) Name() string {
	return u.cfg.Name
}

// tarm/serial 不支持流控，FlowControl 只做记录
func toTarmParity(p config.Parity) serial.Parity {
	switch p {
	case config.ParityOdd:
		return serial.ParityOdd
	case config.ParityEven:
		return serial.ParityEven
	case config.ParityMark:
		return serial.ParityMark
	case config.ParitySpace:
		return serial.ParitySpace
	default:
		return serial.ParityNone
	}
}

func toTarmStopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.Stop2
	}
	return serial.Stop1
}
