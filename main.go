// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// ipmiserial - IPMI Serial Basic Mode client
//
// A CLI tool for opening authenticated sessions with a BMC over an IPMI
// serial port and inspecting the frames exchanged.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/ipmiserial/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
