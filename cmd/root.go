// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Settings given on the command line; only flags the user actually set
	// override the configuration file
	flagSettings settings
	configPath   string

	// Resolved by the root pre-run hook
	active settings
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "ipmiserial",
	Short: "IPMI Serial Basic Mode client",
	Long: `ipmiserial - A CLI tool for talking to a BMC over an IPMI serial port in
Basic Mode.

Opens an authenticated session, issues commands, and shows the raw frames
exchanged on the line.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

The IPMI password is read from the IPMI_PASSWORD environment variable, or
prompted interactively if not set. A WebSocket serial bridge password is read
from BRIDGE_PASSWORD the same way. Passwords are intentionally not accepted as
flags to avoid leaking credentials in shell history.

Settings may also come from a YAML file given with --config; flags that are
set explicitly take precedence over the file.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(configPath, flagSettings, cmd.Flags().Changed)
		if err != nil {
			return err
		}
		log, err := newLogger(s.LogLevel)
		if err != nil {
			return err
		}
		active = s
		logger = log
		return nil
	},
}

func init() {
	defaults := defaultSettings()
	flags := rootCmd.PersistentFlags()

	// Serial line
	flags.StringVarP(&flagSettings.Port, "port", "p", "", "Serial port device")
	flags.IntVarP(&flagSettings.Baud, "baud", "b", defaults.Baud, "Baud rate (9600, 19200, 38400, 57600, 115200)")
	flags.StringVar(&flagSettings.Parity, "parity", defaults.Parity, "Parity (none, odd, even, mark, space)")
	flags.IntVar(&flagSettings.DataBits, "data-bits", defaults.DataBits, "Data bits")
	flags.StringVar(&flagSettings.StopBits, "stop-bits", defaults.StopBits, "Stop bits (1, 1.5, 2)")
	flags.DurationVar(&flagSettings.Timeout, "timeout", defaults.Timeout, "Read timeout")

	// WebSocket serial bridge
	flags.StringVarP(&flagSettings.URL, "url", "u", "", "WebSocket serial bridge URL (ws:// or wss://)")
	flags.StringVar(&flagSettings.Username, "username", "", "Username for HTTP Basic auth on the bridge")
	flags.BoolVar(&flagSettings.NoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// IPMI session
	flags.StringVarP(&flagSettings.User, "user", "U", defaults.User, "IPMI username")
	flags.StringVar(&flagSettings.Privilege, "privilege", defaults.Privilege, "Session privilege (callback, user, operator, administrator, oem)")
	flags.StringVar(&flagSettings.Auth, "auth", defaults.Auth, "Authentication type proposed before a capability probe (none, password, md5)")
	flags.BoolVar(&flagSettings.NoRetry, "no-retry", false, "Never log in again after a timeout or lost session")

	// Tooling
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&flagSettings.LogLevel, "log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&flagSettings.Capture, "capture", "", "Write every exchanged frame to this CBOR capture file")
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
