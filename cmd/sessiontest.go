// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionTestCmd = &cobra.Command{
	Use:   "session_test",
	Short: "Test connectivity by logging in to the BMC",
	Long: `Open the line, establish a session, read the device ID and log off.

Opening the line and logging in are each retried with backoff before the
test gives up.

Exit codes:
  0 - Session established and device ID read
  1 - Login or command failed
  2 - Connection error

Useful for checking wiring, line settings and credentials.`,
	Args: cobra.NoArgs,
	Run:  runSessionTest,
}

func init() {
	rootCmd.AddCommand(sessionTestCmd)
}

func runSessionTest(cmd *cobra.Command, args []string) {
	cs, err := newClientSession(active, logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("ipmiserial - Session Test\n")
	fmt.Printf("Connection: %s\n", cs.lineInfo)
	fmt.Printf("User: %s (%s)\n\n", active.User, active.Privilege)

	if err := cs.connect(cmd.Context()); err != nil {
		cs.Close()
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	if err := cs.login(cmd.Context()); err != nil {
		printSessionStats(cs)
		cs.Close()
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session established\n")
	fmt.Printf("  Session ID: 0x%08X\n", cs.client.SessionID())
	fmt.Printf("  Auth Type: %s\n\n", cs.client.AuthType())

	resp := cs.client.GetDeviceID()
	if !resp.Status().OK() {
		printSessionStats(cs)
		cs.Close()
		fmt.Fprintf(os.Stderr, "FAILED: get device id: %s\n", resp.Status())
		os.Exit(1)
	}
	fmt.Print(formatDeviceID(resp))
	fmt.Println()

	cs.client.Logoff()
	printSessionStats(cs)
	cs.Close()

	fmt.Printf("SUCCESS\n")
	os.Exit(0)
}

func printSessionStats(cs *clientSession) {
	stats := cs.client.Stats()
	fmt.Print(stats.String())
}
