// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import "fmt"

// CompletionCode is the status byte a BMC returns with every response (Section 5.2)
type CompletionCode uint8

const (
	CompletionOK               CompletionCode = 0x00
	CompletionUnspecifiedError CompletionCode = 0xFF
)

const (
	CompletionNodeBusy CompletionCode = iota + 0xC0
	CompletionInvalidCommand
	CompletionInvalidCommandForLUN
	CompletionTimeout
	CompletionOutOfSpace
	CompletionReservationCancelled
	CompletionRequestDataTruncated
	CompletionRequestDataInvalidLength
	CompletionRequestDataFieldExceeded
	CompletionParameterOutOfRange
	CompletionCantReturnDataBytes
	CompletionRequestDataNotPresent
	CompletionInvalidDataField
	CompletionIllegalSensorOrRecord
	CompletionCantBeProvided
	CompletionDuplicatedRequest
	CompletionSDRInUpdateMode
	CompletionFirmwareUpdateMode
	CompletionBMCInitialization
	CompletionDestinationUnavailable
	CompletionInsufficientPrivilege
	CompletionNotSupportedPresentState
	CompletionIllegalCommandDisabled
)

func (c CompletionCode) String() string {
	switch c {
	case CompletionOK:
		return "Command Completed Normally"
	case CompletionUnspecifiedError:
		return "Unspecified error"
	case CompletionNodeBusy:
		return "Node Busy"
	case CompletionInvalidCommand:
		return "Invalid Command"
	case CompletionInvalidCommandForLUN:
		return "Command invalid for given LUN"
	case CompletionTimeout:
		return "Timeout"
	case CompletionOutOfSpace:
		return "Out of space"
	case CompletionReservationCancelled:
		return "Reservation Canceled or Invalid Reservation ID"
	case CompletionRequestDataTruncated:
		return "Request data truncated"
	case CompletionRequestDataInvalidLength:
		return "Request data length invalid"
	case CompletionRequestDataFieldExceeded:
		return "Request data field length limit exceeded"
	case CompletionParameterOutOfRange:
		return "Parameter out of range"
	case CompletionCantReturnDataBytes:
		return "Cannot return number of requested data bytes"
	case CompletionRequestDataNotPresent:
		return "Requested Sensor, data, or record not present"
	case CompletionInvalidDataField:
		return "Invalid data field in Request"
	case CompletionIllegalSensorOrRecord:
		return "Command illegal for specified sensor or record type"
	case CompletionCantBeProvided:
		return "Command response could not be provided"
	case CompletionDuplicatedRequest:
		return "Cannot execute duplicated request"
	case CompletionSDRInUpdateMode:
		return "SDR Repository in update mode"
	case CompletionFirmwareUpdateMode:
		return "Device in firmware update mode"
	case CompletionBMCInitialization:
		return "BMC initialization or initialization agent in progress"
	case CompletionDestinationUnavailable:
		return "Destination unavailable"
	case CompletionInsufficientPrivilege:
		return "Cannot execute command due to insufficient privilege level"
	case CompletionNotSupportedPresentState:
		return "Command not supported in present state"
	case CompletionIllegalCommandDisabled:
		return "Command sub-function has been disabled or is unavailable"
	default:
		return fmt.Sprintf("0x%02x", uint8(c))
	}
}

// StatusKind tells which band an exchange outcome falls into
type StatusKind uint8

const (
	StatusSuccess   StatusKind = iota // BMC answered with CompletionOK and the body parsed
	StatusProtocol                    // BMC answered with a non-zero completion code
	StatusTransport                   // No usable answer; see Fault
)

// Fault is a failure detected by the client itself, not reported by the BMC
type Fault uint8

const (
	FaultNone             Fault = iota
	FaultTimeout                // No response, end of stream, oversized frame or read error
	FaultChecksum               // Checksum-2 mismatch
	FaultMalformed              // Frame too short to carry a completion code
	FaultUnknownResponder       // Response not addressed to a console
	FaultInvalidData            // Response body could not be parsed
	FaultNotConnected           // No line open
)

// Legacy single-byte renderings of each fault. These values are local to
// this client and only matter to callers that still expect one status byte.
const (
	legacyTimeout          = 0xBE
	legacyChecksum         = 0xD6
	legacyMalformed        = 0xC7
	legacyUnknownResponder = 0xAA
	legacyInvalidData      = 0xCC
	legacyNotConnected     = 0xD5
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultTimeout:
		return "timeout"
	case FaultChecksum:
		return "checksum mismatch"
	case FaultMalformed:
		return "malformed response"
	case FaultUnknownResponder:
		return "unrecognized responder"
	case FaultInvalidData:
		return "invalid response data"
	case FaultNotConnected:
		return "not connected"
	default:
		return fmt.Sprintf("fault(%d)", uint8(f))
	}
}

// Status is the outcome of one request/response exchange
type Status struct {
	Kind  StatusKind
	Code  CompletionCode // Valid when Kind is StatusProtocol
	Fault Fault          // Valid when Kind is StatusTransport
}

// Success is the status of a clean exchange
var Success = Status{Kind: StatusSuccess}

// ProtocolStatus wraps a completion code returned by the BMC
func ProtocolStatus(code CompletionCode) Status {
	if code == CompletionOK {
		return Success
	}
	return Status{Kind: StatusProtocol, Code: code}
}

// TransportStatus wraps a client-side fault
func TransportStatus(f Fault) Status {
	return Status{Kind: StatusTransport, Fault: f}
}

// OK reports whether the exchange succeeded
func (s Status) OK() bool {
	return s.Kind == StatusSuccess
}

// IsTimeout reports whether no usable answer arrived in time
func (s Status) IsTimeout() bool {
	return s.Kind == StatusTransport && s.Fault == FaultTimeout
}

// IsPrivilegeLost reports whether the BMC rejected the command for lack of
// session privilege, which happens when the session was dropped
func (s Status) IsPrivilegeLost() bool {
	return s.Kind == StatusProtocol && s.Code == CompletionInsufficientPrivilege
}

// Byte renders the status as a single completion byte
func (s Status) Byte() uint8 {
	switch s.Kind {
	case StatusSuccess:
		return uint8(CompletionOK)
	case StatusProtocol:
		return uint8(s.Code)
	}
	switch s.Fault {
	case FaultTimeout:
		return legacyTimeout
	case FaultChecksum:
		return legacyChecksum
	case FaultMalformed:
		return legacyMalformed
	case FaultUnknownResponder:
		return legacyUnknownResponder
	case FaultInvalidData:
		return legacyInvalidData
	case FaultNotConnected:
		return legacyNotConnected
	}
	return uint8(CompletionUnspecifiedError)
}

func (s Status) String() string {
	switch s.Kind {
	case StatusSuccess:
		return "success"
	case StatusProtocol:
		return fmt.Sprintf("bmc: %s (0x%02X)", s.Code, uint8(s.Code))
	default:
		return fmt.Sprintf("transport: %s", s.Fault)
	}
}
