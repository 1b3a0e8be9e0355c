// Package cli 实现 serialctl：串口面板设备服务配套的命令行工具
package cli

import (
	"os"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/spf13/cobra"
)

var logLevel string

// NewRootCmd 每次返回一棵新的命令树，测试之间互不影响
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "serialctl",
		Short: "Inspect serial ports and serial panel configurations",
		Long: `serialctl lists serial ports, prints the selectable option tables used by
serial panels, validates panel configuration files and sends data to a port.

Configuration files use the same YAML layout as the device service:

  Line:   {dataBits: 8, stopBits: 1, parity: None, flowControl: None}
  Panels: [{serialPort: COM3, baudRate: 9600, sendFormat: 0, ...}]
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level (TRACE, DEBUG, INFO, WARN, ERROR)")

	root.AddCommand(
		newPortsCmd(),
		newOptionsCmd(),
		newCheckCmd(),
		newUpgradeCmd(),
		newSendCmd(),
		newMonitorCmd(),
	)
	return root
}

// Execute 由 main.main() 调用
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() logger.LoggingClient {
	return logger.NewClient("serialctl", logLevel)
}
