// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2019-2023 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package driver provides an implementation of a ProtocolDriver interface.
package driver

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/interfaces"
	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"
	"github.com/spf13/cast"

	"github.com/linjuya-lu/device_serial_go/internal/config"
	"github.com/linjuya-lu/device_serial_go/internal/mqtt"
	"github.com/linjuya-lu/device_serial_go/internal/serial"
)

const (
	// ProtocolName 设备 protocols 中串口参数所在的 key
	ProtocolName = "serial"
	propPort     = "Port"
	propBaudRate = "BaudRate"

	ResourceIsOpen        = "IsOpen"
	ResourceReturnContent = "ReturnContent"
	ResourceBaudRate      = "BaudRate"
	ResourceConfig        = "Config"
	ResourceSendContent   = "SendContent"
	ResourceOpen          = "Open"

	configPathEnv     = "SERIAL_PANEL_CONFIG"
	defaultConfigPath = "./res/serial.yaml"
)

// panel 一个 EdgeX 设备对应一个串口面板
type panel struct {
	cfg    config.SerialPortConfig
	ctx    context.Context
	cancel context.CancelFunc // nil 表示串口未打开
}

type SerialDriver struct {
	lc         logger.LoggingClient
	sdk        interfaces.DeviceServiceSDK
	asyncCh    chan<- *dsModels.AsyncValues
	locker     sync.Mutex
	cfg        *config.AssistantConfig
	reg        *serial.Registry
	db         *DB
	mqttClient *mqtt.Client
	bridge     *mqtt.Bridge
	panels     map[string]*panel
}

var once sync.Once
var driver *SerialDriver

func NewSerialDeviceDriver() interfaces.ProtocolDriver {
	once.Do(func() {
		driver = new(SerialDriver)
	})
	return driver
}

func (d *SerialDriver) Initialize(sdk interfaces.DeviceServiceSDK) error {
	d.sdk = sdk
	d.asyncCh = sdk.AsyncValuesChannel()
	lc := sdk.LoggingClient()

	// —— 1. 读取串口面板配置 —— //
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := loadAssistantConfig(lc, path)
	if err != nil {
		return fmt.Errorf("failed to load serial panel config: %w", err)
	}

	// —— 2. 串口管理 —— //
	if err := d.setup(lc, cfg, serial.NewRegistry(lc)); err != nil {
		return err
	}

	// —— 3. 可选的 MQTT 桥接 —— //
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewClient(mqtt.OptionsFromConfig(cfg.MQTT))
		if err != nil {
			return fmt.Errorf("failed to init MQTT client: %w", err)
		}
		d.mqttClient = client
		d.attachBridge(client)
	}
	return nil
}

func loadAssistantConfig(lc logger.LoggingClient, path string) (*config.AssistantConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		lc.Warnf("serial panel config %s not found, using defaults", path)
		return config.ParseConfig([]byte("{}"))
	}
	return config.LoadConfig(path)
}

func (d *SerialDriver) setup(lc logger.LoggingClient, cfg *config.AssistantConfig, reg *serial.Registry) error {
	d.lc = lc
	d.cfg = cfg
	d.reg = reg
	d.db = NewDB()
	d.panels = make(map[string]*panel)
	if err := reg.SetLine(cfg.Line); err != nil {
		return fmt.Errorf("invalid line config: %w", err)
	}
	return nil
}

func (d *SerialDriver) attachBridge(m mqtt.Messenger) {
	d.bridge = mqtt.NewBridge(d.lc, m, d.reg, d.cfg.MQTT.TopicPrefix)
}

func (d *SerialDriver) Start() error {
	if d.sdk == nil {
		return nil
	}
	for _, dev := range d.sdk.Devices() {
		if err := d.AddDevice(dev.Name, dev.Protocols, dev.AdminState); err != nil {
			d.lc.Errorf("failed to open serial panel %s: %v", dev.Name, err)
		}
	}
	d.lc.Infof("serial panel driver started with %d panel(s) in config", len(d.cfg.Panels))
	return nil
}

func (d *SerialDriver) HandleReadCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest) ([]*dsModels.CommandValue, error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	p, err := d.panel(deviceName)
	if err != nil {
		return nil, err
	}

	res := make([]*dsModels.CommandValue, 0, len(reqs))
	for _, req := range reqs {
		var cv *dsModels.CommandValue
		switch req.DeviceResourceName {
		case ResourceIsOpen:
			cv, err = dsModels.NewCommandValue(req.DeviceResourceName, common.ValueTypeBool, d.reg.IsOpen(p.cfg.SerialPort))
		case ResourceReturnContent:
			content, origin := d.returnContent(deviceName)
			cv, err = dsModels.NewCommandValue(req.DeviceResourceName, common.ValueTypeString, content)
			if err == nil && origin != 0 {
				cv.Origin = origin
			}
		case ResourceBaudRate:
			cv, err = dsModels.NewCommandValue(req.DeviceResourceName, common.ValueTypeInt64, int64(p.cfg.BaudRate))
		case ResourceConfig:
			snapshot := p.cfg
			content, _ := d.returnContent(deviceName)
			snapshot.ReturnContent = config.Content(content)
			var b []byte
			b, err = config.EncodeJSON(snapshot)
			if err == nil {
				cv, err = dsModels.NewCommandValue(req.DeviceResourceName, common.ValueTypeString, string(b))
			}
		default:
			return nil, errors.NewCommonEdgeX(errors.KindContractInvalid, fmt.Sprintf("unknown resource %s", req.DeviceResourceName), nil)
		}
		if err != nil {
			return nil, errors.NewCommonEdgeX(errors.KindServerError, fmt.Sprintf("read %s.%s", deviceName, req.DeviceResourceName), err)
		}
		res = append(res, cv)
		d.lc.Debugf("read %s.%s", deviceName, req.DeviceResourceName)
	}
	return res, nil
}

func (d *SerialDriver) HandleWriteCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest,
	params []*dsModels.CommandValue) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	p, err := d.panel(deviceName)
	if err != nil {
		return err
	}
	if len(params) != len(reqs) {
		return errors.NewCommonEdgeX(errors.KindContractInvalid, "mismatched write parameters", nil)
	}

	for i, req := range reqs {
		switch req.DeviceResourceName {
		case ResourceSendContent:
			s, err := params[i].StringValue()
			if err != nil {
				return errors.NewCommonEdgeX(errors.KindContractInvalid, "SendContent must be a string", err)
			}
			if _, err := d.reg.Write(p.cfg.SerialPort, []byte(s)); err != nil {
				return err
			}
			p.cfg.SendContent = config.Content(s)
		case ResourceOpen:
			open, err := params[i].BoolValue()
			if err != nil {
				return errors.NewCommonEdgeX(errors.KindContractInvalid, "Open must be a bool", err)
			}
			if open {
				err = d.openPanel(deviceName, p)
			} else {
				err = d.closePanel(p)
			}
			if err != nil {
				return err
			}
		default:
			return errors.NewCommonEdgeX(errors.KindContractInvalid, fmt.Sprintf("resource %s is not writable", req.DeviceResourceName), nil)
		}
		d.lc.Infof("write %s.%s", deviceName, req.DeviceResourceName)
	}
	return nil
}

func (d *SerialDriver) Stop(force bool) error {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.lc.Info("SerialDriver.Stop: closing serial panels")

	for _, p := range d.panels {
		if err := d.closePanel(p); err != nil {
			d.lc.Warnf("close %s: %v", p.cfg.SerialPort, err)
		}
	}
	err := d.reg.CloseAll()
	if d.mqttClient != nil {
		d.mqttClient.Disconnect(250)
	}
	return err
}

func (d *SerialDriver) AddDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	cfg, err := d.resolvePanel(protocols)
	if err != nil {
		return err
	}
	for name, other := range d.panels {
		if name != deviceName && other.cfg.SerialPort == cfg.SerialPort {
			return errors.NewCommonEdgeX(errors.KindDuplicateName,
				fmt.Sprintf("serial port %s is already used by device %s", cfg.SerialPort, name), nil)
		}
	}

	// 新配置校验通过后才替换旧面板
	if old, ok := d.panels[deviceName]; ok {
		if err := d.closePanel(old); err != nil {
			return err
		}
		delete(d.panels, deviceName)
	}

	p := &panel{cfg: cfg}
	d.panels[deviceName] = p
	d.lc.Debugf("a new serial panel is added: %s on %s", deviceName, cfg.SerialPort)
	if adminState == models.Locked {
		return nil
	}
	return d.openPanel(deviceName, p)
}

func (d *SerialDriver) UpdateDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("Device %s is updated", deviceName)
	return d.AddDevice(deviceName, protocols, adminState)
}

func (d *SerialDriver) RemoveDevice(deviceName string, protocols map[string]models.ProtocolProperties) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	p, ok := d.panels[deviceName]
	if !ok {
		return nil
	}
	delete(d.panels, deviceName)
	d.db.DeleteDevice(deviceName)
	d.lc.Debugf("Device %s is removed", deviceName)
	return d.closePanel(p)
}

func (d *SerialDriver) Discover() error {
	return fmt.Errorf("driver's Discover function isn't implemented")
}

func (d *SerialDriver) ValidateDevice(device models.Device) error {
	_, err := d.resolvePanel(device.Protocols)
	return err
}

// resolvePanel 配置文件中的同名面板作为基础，设备 protocols 中的 BaudRate 优先
func (d *SerialDriver) resolvePanel(protocols map[string]models.ProtocolProperties) (config.SerialPortConfig, error) {
	pp, ok := protocols[ProtocolName]
	if !ok {
		return config.SerialPortConfig{}, errors.NewCommonEdgeX(errors.KindContractInvalid,
			fmt.Sprintf("protocol %q is missing", ProtocolName), nil)
	}
	port := cast.ToString(pp[propPort])
	cfg, found := d.cfg.Panel(port)
	if !found {
		cfg = config.SerialPortConfig{SerialPort: port}
	}
	if v, ok := pp[propBaudRate]; ok {
		baud, err := cast.ToIntE(v)
		if err != nil {
			return config.SerialPortConfig{}, errors.NewCommonEdgeX(errors.KindContractInvalid, "invalid BaudRate", err)
		}
		cfg.BaudRate = baud
	}
	if err := cfg.Validate(); err != nil {
		return config.SerialPortConfig{}, err
	}
	return cfg, nil
}

// returnContent 最近一次收到的数据及其接收时间，尚未收到时为空
func (d *SerialDriver) returnContent(deviceName string) (string, int64) {
	res, err := d.db.GetResource(deviceName, ResourceReturnContent)
	if err != nil {
		return "", 0
	}
	return string(res.Value), res.Origin
}

func (d *SerialDriver) panel(deviceName string) (*panel, error) {
	p, ok := d.panels[deviceName]
	if !ok {
		return nil, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, fmt.Sprintf("device %s is not a serial panel", deviceName), nil)
	}
	return p, nil
}

// openPanel 打开串口并启动读循环，调用方持有 d.locker
func (d *SerialDriver) openPanel(deviceName string, p *panel) error {
	if p.cancel != nil {
		return nil
	}
	if err := d.reg.Open(p.cfg.SerialPort, p.cfg.BaudRate); err != nil {
		return err
	}
	port, err := d.reg.Get(p.cfg.SerialPort)
	if err != nil {
		return err
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	ctx := p.ctx
	serial.StartReadLoop(ctx, port, func(_ string, data []byte) {
		d.onData(ctx, deviceName, data)
	})
	if d.bridge != nil {
		if err := d.bridge.ServeWrites(p.cfg.SerialPort); err != nil {
			d.lc.Warnf("mqtt writes for %s disabled: %v", p.cfg.SerialPort, err)
		}
	}
	return nil
}

// closePanel 停止读循环并关闭串口，调用方持有 d.locker
func (d *SerialDriver) closePanel(p *panel) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	p.cancel = nil
	if d.bridge != nil {
		if err := d.bridge.StopWrites(p.cfg.SerialPort); err != nil {
			d.lc.Warnf("mqtt unsubscribe for %s: %v", p.cfg.SerialPort, err)
		}
	}
	return d.reg.Close(p.cfg.SerialPort)
}

// onData 在读循环协程中执行
func (d *SerialDriver) onData(ctx context.Context, deviceName string, data []byte) {
	d.locker.Lock()
	p, ok := d.panels[deviceName]
	if !ok || ctx.Err() != nil {
		d.locker.Unlock()
		return
	}
	port := p.cfg.SerialPort
	stored := d.db.PutResource(deviceName, ResourceReturnContent, common.ValueTypeString, data)
	d.locker.Unlock()

	d.lc.Debugf("received %d bytes on %s: % X", len(data), port, data)

	if d.bridge != nil {
		if err := d.bridge.PublishData(port, data); err != nil {
			d.lc.Errorf("publish data of %s failed: %v", port, err)
		}
	}

	if d.asyncCh == nil {
		return
	}
	cv, err := dsModels.NewCommandValue(ResourceReturnContent, common.ValueTypeString, string(data))
	if err != nil {
		d.lc.Errorf("build async value for %s: %v", deviceName, err)
		return
	}
	cv.Origin = stored.Origin
	select {
	case d.asyncCh <- &dsModels.AsyncValues{
		DeviceName:    deviceName,
		SourceName:    ResourceReturnContent,
		CommandValues: []*dsModels.CommandValue{cv},
	}:
	default:
		d.lc.Warnf("async channel full, dropping %d bytes from %s", len(data), deviceName)
	}
}
