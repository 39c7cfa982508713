// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Defaults
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultReadTimeout = time.Second
	DefaultUsername    = "admin"

	MinReadTimeout = 50 * time.Millisecond
	maxPasswordLen = 16
)

// SupportedBaudRates lists the rates Basic Mode BMCs accept
var SupportedBaudRates = []int{9600, 19200, 38400, 57600, 115200}

// Config holds everything the client needs to open the line and log in
type Config struct {
	Port        string
	BaudRate    int
	Parity      serial.Parity
	DataBits    int
	StopBits    serial.StopBits
	ReadTimeout time.Duration // Per-byte read timeout

	Username  string
	Password  string
	Privilege PrivilegeLevel
	AuthType  AuthType // Proposed when no capability probe result is cached

	// OverrideRetry disables the login retry policy for every request
	OverrideRetry bool

	RequesterAddress uint8
	ResponderAddress uint8

	// TargetAuxData, when set, is the OEM auxiliary byte a capability probe
	// must report before the client logs in again after losing its session
	TargetAuxData *uint8
}

// DefaultConfig returns a configuration for 115200 8N1 with an
// administrator session using straight password authentication
func DefaultConfig() Config {
	c := Config{AuthType: AuthTypeStraight}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with their default values.
// Parity and stop bits default to none and one, which are the zero values.
func (c *Config) SetDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.DataBits == 0 {
		c.DataBits = DefaultDataBits
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Privilege == 0 {
		c.Privilege = PrivilegeAdministrator
	}
	if c.RequesterAddress == 0 {
		c.RequesterAddress = RemoteConsoleAddress
	}
	if c.ResponderAddress == 0 {
		c.ResponderAddress = BMCAddress
	}
}

// Validate checks the configuration for values the client cannot use
func (c *Config) Validate() error {
	supported := false
	for _, rate := range SupportedBaudRates {
		if c.BaudRate == rate {
			supported = true
			break
		}
	}
	if !supported {
		return &ArgumentError{Value: c.BaudRate, Message: fmt.Sprintf("baud rate must be one of %v", SupportedBaudRates)}
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return &ArgumentError{Value: c.DataBits, Message: "data bits must be between 5 and 8"}
	}
	if c.ReadTimeout < MinReadTimeout {
		return &ArgumentError{Value: c.ReadTimeout, Message: fmt.Sprintf("read timeout must be at least %s", MinReadTimeout)}
	}
	if len(c.Username) > usernameSize {
		return &ArgumentError{Value: c.Username, Message: "username longer than 16 bytes"}
	}
	if len(c.Password) > maxPasswordLen {
		return &ArgumentError{Value: "********", Message: "password longer than 16 bytes"}
	}
	if c.Privilege < PrivilegeCallback || c.Privilege > PrivilegeOEM {
		return &ArgumentError{Value: c.Privilege, Message: "invalid privilege level"}
	}
	switch c.AuthType {
	case AuthTypeNone, AuthTypeStraight, AuthTypeMD5:
	default:
		return &ArgumentError{Value: c.AuthType, Message: "authentication type must be none, password or md5"}
	}
	return nil
}
