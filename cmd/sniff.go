// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/spf13/cobra"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Passively decode Basic Mode frames seen on the line",
	Long: `Continuously decode and display Basic Mode frames as they arrive, without
sending anything.

Each frame is shown with a timestamp, network function, command, sequence
number, addresses and checksum verdict, followed by its data bytes.

Do not run this on a line a client is using; both would consume the bytes.
Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runSniff,
}

func init() {
	rootCmd.AddCommand(sniffCmd)
}

func runSniff(cmd *cobra.Command, args []string) error {
	port, cfg, err := openLine(active)
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("ipmiserial - Frame Sniffer\n")
	fmt.Printf("Connection: %s\n", describeLine(active, cfg))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	return sniffFrames(port, func(s string) { fmt.Print(s) }, func() bool { return ctx.Err() != nil })
}

// sniffFrames reads r until it fails or stop reports true, emitting one
// formatted block per frame or framing error
func sniffFrames(r io.Reader, emit func(string), stop func() bool) error {
	scanner := basicmode.NewScanner()
	buf := make([]byte, basicmode.MaxFrameSize)

	for !stop() {
		n, err := r.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) || stop() {
				logger.Info().Err(err).Msg("line closed")
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		for i := 0; i < n; i++ {
			frame, err := scanner.ScanByte(buf[i])
			if err != nil {
				emit(fmt.Sprintf("[%s] [ERROR] %v\n", time.Now().Format("15:04:05.000"), err))
				continue
			}
			if frame != nil {
				emit(basicmode.FormatFrame(time.Now(), basicmode.Unwrap(frame)))
			}
		}
	}
	return nil
}
