// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Thermoquad/ipmiserial/pkg/capture"
	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/spf13/cobra"
)

var captureDumpDirs string

var captureDumpCmd = &cobra.Command{
	Use:   "capture_dump <file>",
	Short: "Print the frames recorded in a capture file",
	Long: `Decode a CBOR capture file written with --capture and print each frame in
the same format as sniff, prefixed with its direction (TX, RX or DROP).

DROP frames were read from the line while waiting for a response but did
not carry the expected sequence number.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptureDump,
}

func init() {
	rootCmd.AddCommand(captureDumpCmd)
	captureDumpCmd.Flags().StringVar(&captureDumpDirs, "dir", "", "Only show these directions, comma separated (tx, rx, drop)")
}

func runCaptureDump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	filter, err := parseDirections(captureDumpDirs)
	if err != nil {
		return err
	}

	total, shown, err := dumpCapture(f, os.Stdout, filter)
	fmt.Printf("\n%d of %d frames shown\n", shown, total)
	return err
}

// dumpCapture writes the records of r that pass filter to w
func dumpCapture(r io.Reader, w io.Writer, filter map[ipmi.Direction]bool) (total, shown int, err error) {
	reader := capture.NewReader(r)
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return total, shown, nil
		}
		if err != nil {
			return total, shown, err
		}
		total++

		if filter != nil && !filter[rec.Dir] {
			continue
		}
		shown++
		fmt.Fprint(w, capture.FormatRecord(rec))
	}
}

// parseDirections turns "tx,drop" into a direction set; empty means all
func parseDirections(s string) (map[ipmi.Direction]bool, error) {
	if s == "" {
		return nil, nil
	}
	filter := make(map[ipmi.Direction]bool)
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tx":
			filter[ipmi.DirectionOutbound] = true
		case "rx":
			filter[ipmi.DirectionInbound] = true
		case "drop":
			filter[ipmi.DirectionDiscarded] = true
		default:
			return nil, fmt.Errorf("unknown direction: %s", name)
		}
	}
	return filter, nil
}
