// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package basicmode implements the IPMI serial Basic Mode wire format.
//
// Basic Mode wraps each IPMI message between a start and a stop byte and
// replaces any reserved byte inside the message with a two-byte escape
// sequence.
//
// Frame layout (after escapes are removed):
//
//	[0]      StartByte
//	[1]      responder address
//	[2]      netFn / responder LUN
//	[3]      checksum-1 over [1..2]
//	[4]      requester address
//	[5]      request sequence / requester LUN
//	[6]      command
//	[7..n-3] data (responses start with the completion code)
//	[n-2]    checksum-2 over [4..n-3]
//	[n-1]    StopByte
package basicmode

// Framing bytes
const (
	StartByte     = 0xA0
	StopByte      = 0xA5
	EscapeByte    = 0xAA
	HandshakeByte = 0xA6
	DataEscByte   = 0x1B
)

// Frame limits
const (
	MaxFrameSize = 128 // Largest frame accepted by the reader, delimiters included

	// Smallest response frame: start, six header bytes, completion code,
	// checksum-2 and stop.
	MinResponseSize = 10
)

// Byte offsets inside an unescaped frame (delimiters included)
const (
	OffsetResponderAddr  = 1
	OffsetNetFn          = 2
	OffsetChecksum1      = 3
	OffsetRequesterAddr  = 4
	OffsetSequence       = 5
	OffsetCommand        = 6
	OffsetData           = 7
	OffsetCompletionCode = 7
)
