// internal/serial/serial.go

package serial

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

// DefaultReadTimeout 单次 Read 的最长等待时间
const DefaultReadTimeout = 200 * time.Millisecond

// Port 是整个 serial 包对外暴露的通用串口接口
type Port interface {
	Open() error
	Close() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Name() string
}

// PortConfig 打开一个串口所需的全部参数
type PortConfig struct {
	Name        string
	Baudrate    int
	Line        config.LineConfig
	ReadTimeout time.Duration
}

// NewPort 校验参数并创建未打开的串口
func NewPort(cfg PortConfig) (Port, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("serial port name is required")
	}
	if cfg.Baudrate <= 0 {
		return nil, fmt.Errorf("invalid baudrate %d for %s", cfg.Baudrate, cfg.Name)
	}
	if err := cfg.Line.Validate(); err != nil {
		return nil, fmt.Errorf("line config for %s: %w", cfg.Name, err)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return NewUARTPort(cfg), nil
}

// StartReadLoop 在后台协程里不断读取数据并交给 onData，ctx 取消后退出。
// 返回的 channel 在协程退出时关闭。
func StartReadLoop(ctx context.Context, p Port, onData func(portName string, data []byte)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := p.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				onData(p.Name(), data)
			}
			if err != nil && err != io.EOF {
				// 读取出错，稍后重试
				select {
				case <-ctx.Done():
					return
				case <-time.After(100 * time.Millisecond):
				}
			}
		}
	}()
	return done
}
