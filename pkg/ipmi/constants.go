// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ipmi implements an IPMI client over a serial line in Basic Mode.
//
// The Client owns the line, the session context and the sequence counter.
// Every command goes through Client.Execute, which frames the request,
// correlates the answer by sequence number, classifies the outcome into a
// Status and, when the session was lost, logs in again once before giving
// up.
package ipmi

import (
	"fmt"
	"strings"
)

// NetFn is an IPMI network function
type NetFn uint8

const (
	NetFnChassis   NetFn = 0x00
	NetFnBridge    NetFn = 0x02
	NetFnSensor    NetFn = 0x04
	NetFnApp       NetFn = 0x06
	NetFnFirmware  NetFn = 0x08
	NetFnStorage   NetFn = 0x0A
	NetFnTransport NetFn = 0x0C
	NetFnOEMGroup  NetFn = 0x2E
)

// Response returns the network function used by the matching response
func (n NetFn) Response() NetFn {
	return n | 1
}

// App network function commands
const (
	CmdGetDeviceID                = 0x01
	CmdGetChannelAuthCapabilities = 0x38
	CmdGetSessionChallenge        = 0x39
	CmdActivateSession            = 0x3A
	CmdSetSessionPrivilegeLevel   = 0x3B
	CmdCloseSession               = 0x3C
)

// FormatCommand returns the human-readable name for an App command
func FormatCommand(netFn NetFn, cmd uint8) string {
	if netFn&^1 != NetFnApp {
		return fmt.Sprintf("CMD_0x%02X", cmd)
	}
	switch cmd {
	case CmdGetDeviceID:
		return "GET_DEVICE_ID"
	case CmdGetChannelAuthCapabilities:
		return "GET_CHANNEL_AUTH_CAPABILITIES"
	case CmdGetSessionChallenge:
		return "GET_SESSION_CHALLENGE"
	case CmdActivateSession:
		return "ACTIVATE_SESSION"
	case CmdSetSessionPrivilegeLevel:
		return "SET_SESSION_PRIVILEGE_LEVEL"
	case CmdCloseSession:
		return "CLOSE_SESSION"
	default:
		return fmt.Sprintf("CMD_0x%02X", cmd)
	}
}

// Slave addresses
const (
	BMCAddress           = 0x20
	RemoteConsoleAddress = 0x81
	SerialConsoleAddress = 0x8F
)

// Channel number meaning "the channel this request arrived on"
const CurrentChannel = 0x0E

// AuthType is an IPMI v1.5 authentication type (Section 22.13)
type AuthType uint8

const (
	AuthTypeNone     AuthType = 0x00
	AuthTypeMD2      AuthType = 0x01
	AuthTypeMD5      AuthType = 0x02
	AuthTypeStraight AuthType = 0x04
	AuthTypeOEM      AuthType = 0x05
)

func (a AuthType) String() string {
	switch a {
	case AuthTypeNone:
		return "none"
	case AuthTypeMD2:
		return "md2"
	case AuthTypeMD5:
		return "md5"
	case AuthTypeStraight:
		return "password"
	case AuthTypeOEM:
		return "oem"
	default:
		return fmt.Sprintf("auth(0x%02x)", uint8(a))
	}
}

// supportBit returns the mask for this type in the capabilities response
func (a AuthType) supportBit() uint8 {
	return 1 << a
}

// ParseAuthType converts a name such as "md5" or "password" into an AuthType
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(s) {
	case "none":
		return AuthTypeNone, nil
	case "md2":
		return AuthTypeMD2, nil
	case "md5":
		return AuthTypeMD5, nil
	case "password", "straight":
		return AuthTypeStraight, nil
	case "oem":
		return AuthTypeOEM, nil
	}
	return 0, &ArgumentError{Value: s, Message: "unknown authentication type"}
}

// PrivilegeLevel is a session privilege level (Section 6.8)
type PrivilegeLevel uint8

const (
	PrivilegeCallback      PrivilegeLevel = 0x01
	PrivilegeUser          PrivilegeLevel = 0x02
	PrivilegeOperator      PrivilegeLevel = 0x03
	PrivilegeAdministrator PrivilegeLevel = 0x04
	PrivilegeOEM           PrivilegeLevel = 0x05
)

func (p PrivilegeLevel) String() string {
	switch p {
	case PrivilegeCallback:
		return "callback"
	case PrivilegeUser:
		return "user"
	case PrivilegeOperator:
		return "operator"
	case PrivilegeAdministrator:
		return "administrator"
	case PrivilegeOEM:
		return "oem"
	default:
		return fmt.Sprintf("privilege(0x%02x)", uint8(p))
	}
}

// ParsePrivilegeLevel converts a name such as "administrator" into a PrivilegeLevel
func ParsePrivilegeLevel(s string) (PrivilegeLevel, error) {
	switch strings.ToLower(s) {
	case "callback":
		return PrivilegeCallback, nil
	case "user":
		return PrivilegeUser, nil
	case "operator":
		return PrivilegeOperator, nil
	case "administrator", "admin":
		return PrivilegeAdministrator, nil
	case "oem":
		return PrivilegeOEM, nil
	}
	return 0, &ArgumentError{Value: s, Message: "unknown privilege level"}
}
