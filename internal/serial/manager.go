package serial

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

// Registry 管理已打开的串口：串口名 → Port
type Registry struct {
	lc      logger.LoggingClient
	line    config.LineStore
	mu      sync.RWMutex
	ports   map[string]Port
	newPort Factory
}

// Factory 根据参数创建串口
type Factory func(PortConfig) (Port, error)

func NewRegistry(lc logger.LoggingClient) *Registry {
	return NewRegistryWithFactory(lc, NewPort)
}

// NewRegistryWithFactory 使用自定义的串口创建函数，主要用于测试
func NewRegistryWithFactory(lc logger.LoggingClient, f Factory) *Registry {
	return &Registry{
		lc:      lc,
		ports:   make(map[string]Port),
		newPort: f,
	}
}

// SetLine 修改线路参数，下次 Open 时生效
func (r *Registry) SetLine(l config.LineConfig) error {
	if err := r.line.Set(l); err != nil {
		return err
	}
	r.lc.Debugf("line config set to %d/%d/%s/%s", l.DataBits, l.StopBits, l.Parity, l.FlowControl)
	return nil
}

func (r *Registry) Line() config.LineConfig {
	return r.line.Get()
}

// Open 打开串口；已打开时直接返回成功
func (r *Registry) Open(name string, baudrate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[name]; ok {
		return nil
	}
	p, err := r.newPort(PortConfig{
		Name:        name,
		Baudrate:    baudrate,
		Line:        r.line.Get(),
		ReadTimeout: DefaultReadTimeout,
	})
	if err != nil {
		return errors.NewCommonEdgeX(errors.KindContractInvalid, "invalid port config", err)
	}
	if err := p.Open(); err != nil {
		return errors.NewCommonEdgeX(errors.KindCommunicationError, fmt.Sprintf("open %s", name), err)
	}
	r.ports[name] = p
	r.lc.Infof("serial port %s opened at %d baud", name, baudrate)
	return nil
}

// Close 关闭并移除串口；未打开时什么也不做
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	p, ok := r.ports[name]
	delete(r.ports, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := p.Close(); err != nil {
		return errors.NewCommonEdgeX(errors.KindCommunicationError, fmt.Sprintf("close %s", name), err)
	}
	r.lc.Infof("serial port %s closed", name)
	return nil
}

// CloseAll 关闭所有串口，返回第一个错误
func (r *Registry) CloseAll() error {
	var firstErr error
	for _, name := range r.Names() {
		if err := r.Close(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Registry) IsOpen(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ports[name]
	return ok
}

// Names 已打开的串口名，排序后返回
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.ports))
	for n := range r.ports {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Get 返回已打开的串口
func (r *Registry) Get(name string) (Port, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.ports[name]
	if !ok {
		return nil, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, fmt.Sprintf("serial port %s is not open", name), nil)
	}
	return p, nil
}

// Write 原样写入数据
func (r *Registry) Write(name string, data []byte) (int, error) {
	p, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	r.lc.Debugf("write %d bytes to %s: % X", len(data), name, data)
	n, err := p.Write(data)
	if err != nil {
		return n, errors.NewCommonEdgeX(errors.KindCommunicationError, fmt.Sprintf("write %s", name), err)
	}
	return n, nil
}

// Read 读取最多 max 字节；超时未收到数据返回空切片
func (r *Registry) Read(name string, max int) ([]byte, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 4096
	}
	buf := make([]byte, max)
	n, err := p.Read(buf)
	if err != nil && err != io.EOF {
		return nil, errors.NewCommonEdgeX(errors.KindCommunicationError, fmt.Sprintf("read %s", name), err)
	}
	return buf[:n], nil
}
