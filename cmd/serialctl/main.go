package main

import "github.com/linjuya-lu/device_serial_go/internal/cli"

func main() {
	cli.Execute()
}
