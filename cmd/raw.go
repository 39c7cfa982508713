// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/spf13/cobra"
)

var rawNoLogin bool

var rawCmd = &cobra.Command{
	Use:   "raw <netfn> <cmd> [data...]",
	Short: "Send an arbitrary command and print the response body",
	Long: `Send a command with the given network function, command code and data
bytes, and print the completion status and response body.

Bytes are hexadecimal, with or without a 0x prefix:
  ipmiserial raw 0x06 0x01
  ipmiserial raw 06 38 0e 04 --no-login`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
	rawCmd.Flags().BoolVar(&rawNoLogin, "no-login", false, "Send without establishing a session")
}

func runRaw(cmd *cobra.Command, args []string) error {
	netFn, command, data, err := parseRawCommand(args)
	if err != nil {
		return err
	}

	cs, err := newClientSession(active, logger, !rawNoLogin)
	if err != nil {
		return err
	}
	defer cs.Close()

	if rawNoLogin {
		err = cs.connect(cmd.Context())
	} else {
		err = cs.open(cmd.Context())
	}
	if err != nil {
		return err
	}

	resp := cs.client.Raw(netFn, command, data)
	fmt.Print(formatRawResponse(netFn, command, resp))
	if !resp.Status().OK() {
		return fmt.Errorf("%s: %s", ipmi.FormatCommand(netFn, command), resp.Status())
	}
	return nil
}

// parseRawCommand splits "netfn cmd data..." arguments
func parseRawCommand(args []string) (ipmi.NetFn, uint8, []byte, error) {
	if len(args) < 2 {
		return 0, 0, nil, fmt.Errorf("need at least a network function and a command")
	}
	bytes, err := parseHexBytes(args)
	if err != nil {
		return 0, 0, nil, err
	}
	if bytes[0] > 0x3F {
		return 0, 0, nil, fmt.Errorf("network function 0x%02X out of range (0x00-0x3F)", bytes[0])
	}
	return ipmi.NetFn(bytes[0]), bytes[1], bytes[2:], nil
}

// parseHexBytes parses tokens such as "0x1f", "1F" or "f" into bytes
func parseHexBytes(tokens []string) ([]byte, error) {
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		digits := strings.TrimPrefix(strings.ToLower(tok), "0x")
		v, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", tok)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func formatRawResponse(netFn ipmi.NetFn, command uint8, resp *ipmi.RawResponse) string {
	result := fmt.Sprintf("%s (netfn=0x%02X cmd=0x%02X)\n", ipmi.FormatCommand(netFn, command), uint8(netFn), command)
	result += fmt.Sprintf("  Status: %s (0x%02X)\n", resp.Status(), resp.Status().Byte())
	if len(resp.Data) > 0 {
		result += basicmode.FormatData(resp.Data)
	}
	return result
}
