// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the byte line to the BMC. A Read that sees no data within the
// line's read timeout must return either (0, nil) or an error.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens the line described by cfg
type Dialer func(cfg *Config) (Port, error)

// OpenSerial opens cfg.Port with the configured mode, asserts RTS and sets
// the per-read timeout
func OpenSerial(cfg *Config) (Port, error) {
	if cfg.Port == "" {
		return nil, &ArgumentError{Value: cfg.Port, Message: "serial port not specified"}
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}
	if err := port.SetRTS(true); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to assert RTS on %s: %w", cfg.Port, err)
	}

	return port, nil
}
