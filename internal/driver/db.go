package driver

import (
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/errors"
)

// Resource 缓存的资源值，Value 保存原始字节
type Resource struct {
	Name      string // 资源名
	ValueType string // EdgeX 值类型，例如 common.ValueTypeString
	Value     []byte
	Origin    int64 // 写入时间，Unix 纳秒
}

// DB 是一个简单的内存存储：DeviceName → ResourceName → Resource
type DB struct {
	mu    sync.RWMutex
	store map[string]map[string]Resource
}

func NewDB() *DB {
	return &DB{
		store: make(map[string]map[string]Resource),
	}
}

// PutResource 为指定设备添加或覆盖一个资源，返回写入的记录（含 Origin）
func (d *DB) PutResource(deviceName, resourceName, valueType string, value []byte) Resource {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.store[deviceName]; !ok {
		d.store[deviceName] = make(map[string]Resource)
	}
	res := Resource{
		Name:      resourceName,
		ValueType: valueType,
		Value:     append([]byte(nil), value...), // 复制一份，避免外部修改
		Origin:    time.Now().UnixNano(),
	}
	d.store[deviceName][resourceName] = res
	res.Value = append([]byte(nil), res.Value...)
	return res
}

// GetResource 获取指定设备的某个资源
func (d *DB) GetResource(deviceName, resourceName string) (Resource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	devMap, ok := d.store[deviceName]
	if !ok {
		return Resource{}, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, "device "+deviceName+" not found", nil)
	}
	res, ok := devMap[resourceName]
	if !ok {
		return Resource{}, errors.NewCommonEdgeX(errors.KindEntityDoesNotExist, "resource "+resourceName+" not found", nil)
	}
	res.Value = append([]byte(nil), res.Value...)
	return res, nil
}

// DeleteDevice 删除整个设备及其所有资源
func (d *DB) DeleteDevice(deviceName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.store, deviceName)
}
