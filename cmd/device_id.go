// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/spf13/cobra"
)

var deviceIDCmd = &cobra.Command{
	Use:   "device_id",
	Short: "Log in and print the BMC's Get Device ID response",
	Args:  cobra.NoArgs,
	RunE:  runDeviceID,
}

func init() {
	rootCmd.AddCommand(deviceIDCmd)
}

func runDeviceID(cmd *cobra.Command, args []string) error {
	cs, err := newClientSession(active, logger, true)
	if err != nil {
		return err
	}
	defer cs.Close()

	if err := cs.open(cmd.Context()); err != nil {
		return err
	}

	resp := cs.client.GetDeviceID()
	if !resp.Status().OK() {
		return fmt.Errorf("get device id: %s", resp.Status())
	}

	fmt.Print(formatDeviceID(resp))
	return nil
}

func formatDeviceID(r *ipmi.GetDeviceIDResponse) string {
	result := fmt.Sprintf("Device ID:          0x%02X\n", r.DeviceID)
	result += fmt.Sprintf("Device Revision:    %d\n", r.DeviceRevision)
	result += fmt.Sprintf("Firmware Revision:  %s\n", r.FirmwareVersion())
	result += fmt.Sprintf("IPMI Version:       %s\n", r.IPMIVersionString())
	result += fmt.Sprintf("Manufacturer ID:    %d\n", r.ManufacturerID)
	result += fmt.Sprintf("Product ID:         %d (0x%04X)\n", r.ProductID, r.ProductID)
	result += fmt.Sprintf("Device Available:   %s\n", yesNo(r.DeviceAvailable))
	result += fmt.Sprintf("Provides SDRs:      %s\n", yesNo(r.ProvidesSDRs))
	result += fmt.Sprintf("Additional Support: 0x%02X\n", r.AdditionalSupport)
	if len(r.AuxFirmware) > 0 {
		result += fmt.Sprintf("Aux Firmware Rev:   % X\n", r.AuxFirmware)
	}
	return result
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
