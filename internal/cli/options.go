package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the selectable values for baud rate, formats and line settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.AppendHeader(table.Row{"Setting", "Label", "Value"})
			appendOptions(t, "baudRate", config.BaudRateOptions)
			appendOptions(t, "format", config.FormatOptions)
			appendOptions(t, "dataBits", config.DataBitsOptions)
			appendOptions(t, "stopBits", config.StopBitsOptions)
			appendOptions(t, "parity", config.ParityOptions)
			appendOptions(t, "flowControl", config.FlowControlOptions)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func appendOptions[T comparable](t table.Writer, setting string, opts config.OptionList[T]) {
	for _, o := range opts {
		t.AppendRow(table.Row{setting, o.Label, fmt.Sprint(o.Value)})
	}
}
