package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.yaml>",
		Short: "Validate a serial panel configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(args[0])
			if err != nil {
				return err
			}
			newLogger().Debugf("loaded %d panel(s) from %s", len(cfg.Panels), args[0])

			l := cfg.Line
			fmt.Fprintf(cmd.OutOrStdout(), "line: %d data bits, %d stop bits, parity %s, flow control %s\n",
				l.DataBits, l.StopBits, l.Parity, l.FlowControl)

			t := table.NewWriter()
			t.AppendHeader(table.Row{"#", "Port", "Baud", "Send format", "Auto send", "Auto send times"})
			for i, p := range cfg.Panels {
				t.AppendRow(table.Row{i + 1, p.SerialPort, p.BaudRate, p.SendFormat.String(), p.AutoSend, p.AutoSendTimes})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			if cfg.MQTT.Broker != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "mqtt: %s (prefix %s)\n", cfg.MQTT.Broker, cfg.MQTT.TopicPrefix)
			}
			return nil
		},
	}
}
