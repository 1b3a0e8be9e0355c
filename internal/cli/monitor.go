package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device_serial_go/internal/config"
	"github.com/linjuya-lu/device_serial_go/internal/serial"
)

func newMonitorCmd() *cobra.Command {
	var port string
	var baud int
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print everything received on a serial port until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 收到 SIGINT/SIGTERM 或上层 context 取消时退出
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMonitor(ctx, cmd.OutOrStdout(), port, baud)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port name")
	cmd.Flags().IntVarP(&baud, "baud", "b", 9600, "baud rate")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func runMonitor(ctx context.Context, out io.Writer, port string, baud int) error {
	lc := newLogger()
	panel := config.SerialPortConfig{SerialPort: port, BaudRate: baud}
	if err := panel.Validate(); err != nil {
		return err
	}

	reg := newRegistry(lc)
	if err := reg.Open(port, baud); err != nil {
		return err
	}
	p, err := reg.Get(port)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	done := serial.StartReadLoop(ctx, p, func(_ string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = out.Write(data)
	})
	lc.Infof("monitoring %s at %d baud", port, baud)

	<-ctx.Done()
	<-done
	if err := reg.Close(port); err != nil {
		return fmt.Errorf("close %s: %w", port, err)
	}
	lc.Infof("monitor on %s stopped", port)
	return nil
}
