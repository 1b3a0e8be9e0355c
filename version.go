// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2019-2023 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package device_serial

// Version for the device service, overridden by ldflags at build time
var Version string = "0.1.0"
