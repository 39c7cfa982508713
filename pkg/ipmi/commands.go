// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"encoding/binary"
	"fmt"
)

// Fixed field widths
const (
	usernameSize  = 16
	challengeSize = 16
	authCodeSize  = 16
)

////////////////////////////////////////////////////////////////
// Get Channel Authentication Capabilities (Section 22.13)
////////////////////////////////////////////////////////////////

// GetChannelAuthCapabilitiesRequest asks which authentication types a channel accepts
type GetChannelAuthCapabilitiesRequest struct {
	Channel   uint8
	Privilege PrivilegeLevel
}

func (r *GetChannelAuthCapabilitiesRequest) NetFn() NetFn   { return NetFnApp }
func (r *GetChannelAuthCapabilitiesRequest) Command() uint8 { return CmdGetChannelAuthCapabilities }

func (r *GetChannelAuthCapabilitiesRequest) MarshalData() ([]byte, error) {
	return []byte{r.Channel, uint8(r.Privilege)}, nil
}

// GetChannelAuthCapabilitiesResponse is the capability probe answer
type GetChannelAuthCapabilitiesResponse struct {
	ResponseHeader
	Channel         uint8
	AuthTypeSupport uint8
	AuthStatus      uint8
	ExtCapabilities uint8
	OEMID           uint32 // 24-bit IANA enterprise number
	OEMAuxData      uint8
}

func (r *GetChannelAuthCapabilitiesResponse) UnmarshalData(data []byte) error {
	if err := checkLength("get channel auth capabilities", data, 8); err != nil {
		return err
	}
	r.Channel = data[0]
	r.AuthTypeSupport = data[1] & 0x3F
	r.AuthStatus = data[2]
	r.ExtCapabilities = data[3]
	r.OEMID = uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16
	r.OEMAuxData = data[7]
	return nil
}

// Supports reports whether the channel accepts the given authentication type
func (r *GetChannelAuthCapabilitiesResponse) Supports(t AuthType) bool {
	return r.AuthTypeSupport&t.supportBit() != 0
}

////////////////////////////////////////////////////////////////
// Get Session Challenge (Section 22.16)
////////////////////////////////////////////////////////////////

// GetSessionChallengeRequest starts a login for the named account
type GetSessionChallengeRequest struct {
	AuthType AuthType
	Username string
}

func (r *GetSessionChallengeRequest) NetFn() NetFn   { return NetFnApp }
func (r *GetSessionChallengeRequest) Command() uint8 { return CmdGetSessionChallenge }

func (r *GetSessionChallengeRequest) MarshalData() ([]byte, error) {
	if len(r.Username) > usernameSize {
		return nil, &ArgumentError{Value: r.Username, Message: "username longer than 16 bytes"}
	}
	buf := make([]byte, 1+usernameSize)
	buf[0] = uint8(r.AuthType)
	copy(buf[1:], r.Username)
	return buf, nil
}

// GetSessionChallengeResponse carries the temporary session and its challenge
type GetSessionChallengeResponse struct {
	ResponseHeader
	TemporarySessionID uint32
	Challenge          [challengeSize]byte
}

func (r *GetSessionChallengeResponse) UnmarshalData(data []byte) error {
	if err := checkLength("get session challenge", data, 4+challengeSize); err != nil {
		return err
	}
	r.TemporarySessionID = binary.LittleEndian.Uint32(data[0:4])
	copy(r.Challenge[:], data[4:4+challengeSize])
	return nil
}

////////////////////////////////////////////////////////////////
// Activate Session (Section 22.17)
////////////////////////////////////////////////////////////////

// ActivateSessionRequest proves the password and opens the session
type ActivateSessionRequest struct {
	AuthType           AuthType
	Privilege          PrivilegeLevel
	AuthCode           [authCodeSize]byte
	InitialOutboundSeq uint32
}

func (r *ActivateSessionRequest) NetFn() NetFn   { return NetFnApp }
func (r *ActivateSessionRequest) Command() uint8 { return CmdActivateSession }

func (r *ActivateSessionRequest) MarshalData() ([]byte, error) {
	buf := make([]byte, 2+authCodeSize+4)
	buf[0] = uint8(r.AuthType)
	buf[1] = uint8(r.Privilege)
	copy(buf[2:], r.AuthCode[:])
	binary.LittleEndian.PutUint32(buf[2+authCodeSize:], r.InitialOutboundSeq)
	return buf, nil
}

// ActivateSessionResponse carries the permanent session identifier
type ActivateSessionResponse struct {
	ResponseHeader
	AuthType          AuthType
	SessionID         uint32
	InitialInboundSeq uint32
	MaxPrivilege      PrivilegeLevel
}

func (r *ActivateSessionResponse) UnmarshalData(data []byte) error {
	if err := checkLength("activate session", data, 10); err != nil {
		return err
	}
	r.AuthType = AuthType(data[0] & 0x0F)
	r.SessionID = binary.LittleEndian.Uint32(data[1:5])
	r.InitialInboundSeq = binary.LittleEndian.Uint32(data[5:9])
	r.MaxPrivilege = PrivilegeLevel(data[9] & 0x0F)
	return nil
}

////////////////////////////////////////////////////////////////
// Set Session Privilege Level (Section 22.18)
////////////////////////////////////////////////////////////////

// SetSessionPrivilegeLevelRequest raises the session to the requested level
type SetSessionPrivilegeLevelRequest struct {
	Privilege PrivilegeLevel
}

func (r *SetSessionPrivilegeLevelRequest) NetFn() NetFn   { return NetFnApp }
func (r *SetSessionPrivilegeLevelRequest) Command() uint8 { return CmdSetSessionPrivilegeLevel }

func (r *SetSessionPrivilegeLevelRequest) MarshalData() ([]byte, error) {
	return []byte{uint8(r.Privilege)}, nil
}

// SetSessionPrivilegeLevelResponse reports the level now in effect
type SetSessionPrivilegeLevelResponse struct {
	ResponseHeader
	Privilege PrivilegeLevel
}

func (r *SetSessionPrivilegeLevelResponse) UnmarshalData(data []byte) error {
	if err := checkLength("set session privilege level", data, 1); err != nil {
		return err
	}
	r.Privilege = PrivilegeLevel(data[0] & 0x0F)
	return nil
}

////////////////////////////////////////////////////////////////
// Close Session (Section 22.19)
////////////////////////////////////////////////////////////////

// CloseSessionRequest ends the given session
type CloseSessionRequest struct {
	SessionID uint32
}

func (r *CloseSessionRequest) NetFn() NetFn   { return NetFnApp }
func (r *CloseSessionRequest) Command() uint8 { return CmdCloseSession }

func (r *CloseSessionRequest) MarshalData() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, r.SessionID)
	return buf, nil
}

// CloseSessionResponse has no body
type CloseSessionResponse struct {
	ResponseHeader
}

func (r *CloseSessionResponse) UnmarshalData(data []byte) error {
	return nil
}

////////////////////////////////////////////////////////////////
// Get Device ID (Section 20.1)
////////////////////////////////////////////////////////////////

// GetDeviceIDRequest asks the BMC to identify itself
type GetDeviceIDRequest struct{}

func (r *GetDeviceIDRequest) NetFn() NetFn                 { return NetFnApp }
func (r *GetDeviceIDRequest) Command() uint8               { return CmdGetDeviceID }
func (r *GetDeviceIDRequest) MarshalData() ([]byte, error) { return nil, nil }

// GetDeviceIDResponse describes the controller
type GetDeviceIDResponse struct {
	ResponseHeader
	DeviceID          uint8
	DeviceRevision    uint8
	ProvidesSDRs      bool
	FirmwareMajor     uint8
	FirmwareMinor     uint8 // BCD
	DeviceAvailable   bool
	IPMIVersion       uint8 // BCD, major in the low nibble
	AdditionalSupport uint8
	ManufacturerID    uint32
	ProductID         uint16
	AuxFirmware       []byte
}

func (r *GetDeviceIDResponse) UnmarshalData(data []byte) error {
	if err := checkLength("get device id", data, 11); err != nil {
		return err
	}
	r.DeviceID = data[0]
	r.DeviceRevision = data[1] & 0x0F
	r.ProvidesSDRs = data[1]&0x80 != 0
	r.FirmwareMajor = data[2] & 0x7F
	r.DeviceAvailable = data[2]&0x80 == 0
	r.FirmwareMinor = data[3]
	r.IPMIVersion = data[4]
	r.AdditionalSupport = data[5]
	r.ManufacturerID = uint32(data[6]) | uint32(data[7])<<8 | uint32(data[8]&0x0F)<<16
	r.ProductID = binary.LittleEndian.Uint16(data[9:11])
	if len(data) >= 15 {
		r.AuxFirmware = append([]byte(nil), data[11:15]...)
	}
	return nil
}

// FirmwareVersion renders the firmware revision as major.minor
func (r *GetDeviceIDResponse) FirmwareVersion() string {
	return fmt.Sprintf("%d.%02x", r.FirmwareMajor, r.FirmwareMinor)
}

// IPMIVersionString renders the IPMI version as major.minor
func (r *GetDeviceIDResponse) IPMIVersionString() string {
	return fmt.Sprintf("%d.%d", r.IPMIVersion&0x0F, r.IPMIVersion>>4)
}

////////////////////////////////////////////////////////////////
// Raw
////////////////////////////////////////////////////////////////

// RawRequest sends an arbitrary command body
type RawRequest struct {
	Fn   NetFn
	Cmd  uint8
	Data []byte
}

func (r *RawRequest) NetFn() NetFn                 { return r.Fn }
func (r *RawRequest) Command() uint8               { return r.Cmd }
func (r *RawRequest) MarshalData() ([]byte, error) { return r.Data, nil }

// RawResponse keeps the body as received
type RawResponse struct {
	ResponseHeader
	Data []byte
}

func (r *RawResponse) UnmarshalData(data []byte) error {
	r.Data = append([]byte(nil), data...)
	return nil
}
