package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device_serial_go/internal/config"
)

// upgradeResult 输出格式：转换后的记录 + 被移除的显示字段
type upgradeResult struct {
	From    string                  `json:"from"`
	Config  config.SerialPortConfig `json:"config"`
	Dropped config.DisplayOptions   `json:"dropped"`
}

func newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <record.json>",
		Short: "Convert a legacy, transitional or current panel record into the current layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cur, dropped, from, err := config.UpgradeJSON(data)
			if err != nil {
				return err
			}
			if err := cur.Validate(); err != nil {
				newLogger().Warnf("upgraded record is not valid: %v", err)
			}
			out, err := json.MarshalIndent(upgradeResult{From: from.String(), Config: cur, Dropped: dropped}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
