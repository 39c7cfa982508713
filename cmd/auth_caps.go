// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/spf13/cobra"
)

var authCapsCmd = &cobra.Command{
	Use:   "auth_caps",
	Short: "Probe the channel's authentication capabilities",
	Long: `Send Get Channel Authentication Capabilities without logging in and print
the authentication types and OEM data the BMC reports.

The OEM auxiliary byte is what target_aux in the configuration file is
compared against before the client logs in again after a lost session.`,
	Args: cobra.NoArgs,
	RunE: runAuthCaps,
}

func init() {
	rootCmd.AddCommand(authCapsCmd)
}

func runAuthCaps(cmd *cobra.Command, args []string) error {
	cs, err := newClientSession(active, logger, false)
	if err != nil {
		return err
	}
	defer cs.Close()

	if err := cs.connect(cmd.Context()); err != nil {
		return fmt.Errorf("failed to open %s: %w", cs.lineInfo, err)
	}

	caps := cs.client.ProbeCapabilities()
	if !caps.Status().OK() {
		return fmt.Errorf("get channel authentication capabilities: %s", caps.Status())
	}

	fmt.Print(formatAuthCaps(caps, cs.client.Config().AuthType))
	return nil
}

func formatAuthCaps(c *ipmi.GetChannelAuthCapabilitiesResponse, preferred ipmi.AuthType) string {
	var types []string
	for _, t := range []ipmi.AuthType{ipmi.AuthTypeNone, ipmi.AuthTypeMD2, ipmi.AuthTypeMD5, ipmi.AuthTypeStraight, ipmi.AuthTypeOEM} {
		if c.Supports(t) {
			types = append(types, t.String())
		}
	}
	if len(types) == 0 {
		types = append(types, "(none reported)")
	}

	result := fmt.Sprintf("Channel:            %d\n", c.Channel)
	result += fmt.Sprintf("Auth Types:         %s\n", strings.Join(types, ", "))
	result += fmt.Sprintf("Negotiated:         %s\n", ipmi.NegotiateAuthType(c, preferred))
	result += fmt.Sprintf("Auth Status:        0x%02X\n", c.AuthStatus)
	result += fmt.Sprintf("Ext Capabilities:   0x%02X\n", c.ExtCapabilities)
	result += fmt.Sprintf("OEM ID:             %d\n", c.OEMID)
	result += fmt.Sprintf("OEM Aux Data:       0x%02X\n", c.OEMAuxData)
	return result
}
