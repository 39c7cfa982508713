// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import (
	"fmt"
	"strings"
	"time"
)

// HexString renders data as "0x" followed by upper-case hex digits
func HexString(data []byte) string {
	return fmt.Sprintf("0x%X", data)
}

// FormatNetFn returns the human-readable name for a network function.
// Odd values are responses to the even function below them.
func FormatNetFn(netFn uint8) string {
	var name string
	switch netFn &^ 1 {
	case 0x00:
		name = "CHASSIS"
	case 0x02:
		name = "BRIDGE"
	case 0x04:
		name = "SENSOR_EVENT"
	case 0x06:
		name = "APP"
	case 0x08:
		name = "FIRMWARE"
	case 0x0A:
		name = "STORAGE"
	case 0x0C:
		name = "TRANSPORT"
	case 0x2C:
		name = "GROUP_EXT"
	case 0x2E:
		name = "OEM_GROUP"
	default:
		if netFn >= 0x30 {
			name = "OEM"
		} else {
			name = "UNKNOWN"
		}
	}
	if netFn&1 == 1 {
		return name + "_RSP"
	}
	return name
}

// FormatFrame formats an unescaped frame into a human-readable string
func FormatFrame(timestamp time.Time, frame []byte) string {
	msg, err := ParseFrame(frame)
	if err != nil {
		return fmt.Sprintf("[%s] MALFORMED (%v)\n  Raw: %s\n", timestamp.Format("15:04:05.000"), err, HexString(frame))
	}

	checks := "ok"
	if !ValidHeaderChecksum(frame) || !ValidChecksum(frame) {
		checks = "BAD"
	}

	result := fmt.Sprintf("[%s] %s (0x%02X) cmd=0x%02X seq=%d %02X->%02X checksum=%s\n",
		timestamp.Format("15:04:05.000"), FormatNetFn(msg.NetFn), msg.NetFn, msg.Command,
		msg.Sequence, msg.SourceAddr, msg.TargetAddr, checks)

	if len(msg.Data) > 0 {
		result += FormatData(msg.Data)
	}
	return result
}

// FormatData returns a hex dump of a message body, 16 bytes per line
func FormatData(data []byte) string {
	var b strings.Builder
	b.WriteString("  Data: ")
	for i, v := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n        ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	b.WriteString("\n")
	return b.String()
}
