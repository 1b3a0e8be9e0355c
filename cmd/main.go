// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018-2022 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/edgexfoundry/device-sdk-go/v4/pkg/startup"

	device_serial "github.com/linjuya-lu/device_serial_go"
	"github.com/linjuya-lu/device_serial_go/internal/driver"
)

const (
	serviceName string = "device-serial"
)

func main() {
	d := driver.NewSerialDeviceDriver()
	startup.Bootstrap(serviceName, device_serial.Version, d)
}
