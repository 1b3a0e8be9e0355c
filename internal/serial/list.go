package serial

import (
	"sort"

	bugserial "go.bug.st/serial"
)

// getPortsList 可在测试中替换
var getPortsList = bugserial.GetPortsList

// List 返回系统中可用的串口名，按名称排序
func List() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
