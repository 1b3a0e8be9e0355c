package cli

import (
	"fmt"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device_serial_go/internal/config"
	"github.com/linjuya-lu/device_serial_go/internal/serial"
)

// newRegistry 可在测试中替换
var newRegistry = serial.NewRegistry

type sendOptions struct {
	port     string
	baud     int
	wait     time.Duration
	dataBits int
	stopBits int
	parity   string
}

func newSendCmd() *cobra.Command {
	o := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <content>",
		Short: "Write content to a serial port as-is and print what comes back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, o, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.port, "port", "p", "", "serial port name, e.g. COM3 or /dev/ttyUSB0")
	cmd.Flags().IntVarP(&o.baud, "baud", "b", 9600, "baud rate")
	cmd.Flags().DurationVarP(&o.wait, "wait", "w", time.Second, "how long to collect the reply")
	cmd.Flags().IntVar(&o.dataBits, "data-bits", 8, "data bits")
	cmd.Flags().IntVar(&o.stopBits, "stop-bits", 1, "stop bits")
	cmd.Flags().StringVar(&o.parity, "parity", string(config.ParityNone), "parity (None, Odd, Even, Mark, Space)")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func runSend(cmd *cobra.Command, o *sendOptions, content string) error {
	lc := newLogger()
	panel := config.SerialPortConfig{
		SerialPort:  o.port,
		BaudRate:    o.baud,
		SendFormat:  config.FormatText,
		SendContent: config.Content(content),
	}
	if err := panel.Validate(); err != nil {
		return err
	}

	reg := newRegistry(lc)
	line := config.DefaultLineConfig()
	line.DataBits = o.dataBits
	line.StopBits = o.stopBits
	line.Parity = config.Parity(o.parity)
	if err := reg.SetLine(line); err != nil {
		return err
	}
	if err := reg.Open(panel.SerialPort, panel.BaudRate); err != nil {
		return err
	}
	defer func() { _ = reg.Close(panel.SerialPort) }()

	n, err := reg.Write(panel.SerialPort, []byte(panel.SendContent))
	if err != nil {
		return err
	}
	lc.Infof("sent %d bytes to %s", n, panel.SerialPort)

	reply, err := collect(lc, reg, panel.SerialPort, o.wait)
	if err != nil {
		return err
	}
	panel.ReturnContent = config.Content(reply)
	fmt.Fprint(cmd.OutOrStdout(), panel.ReturnContent)
	return nil
}

// collect 在 wait 时间内持续读取，每次 Read 最多阻塞 serial.DefaultReadTimeout
func collect(lc logger.LoggingClient, reg *serial.Registry, port string, wait time.Duration) ([]byte, error) {
	var out []byte
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		data, err := reg.Read(port, 4096)
		if err != nil {
			return out, err
		}
		out = append(out, data...)
	}
	lc.Debugf("received %d bytes from %s", len(out), port)
	return out, nil
}
