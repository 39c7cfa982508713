// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import "sort"

// EscapeRule maps a reserved byte to the two bytes sent in its place.
type EscapeRule struct {
	Frame       byte
	Replacement [2]byte
}

// EscapeRules is the Basic Mode substitution table.
var EscapeRules = [...]EscapeRule{
	{Frame: EscapeByte, Replacement: [2]byte{0xAA, 0xBA}},
	{Frame: StartByte, Replacement: [2]byte{0xAA, 0xB0}},
	{Frame: StopByte, Replacement: [2]byte{0xAA, 0xB5}},
	{Frame: HandshakeByte, Replacement: [2]byte{0xAA, 0xB6}},
	{Frame: DataEscByte, Replacement: [2]byte{0xAA, 0x3B}},
}

// match is one rule occurrence found during a scan
type match struct {
	pos  int
	rule int
}

// Encode replaces every reserved byte in data with its escape sequence.
// The result is a new buffer of len(data)+matches bytes. When nothing
// matches, data is returned as is.
func Encode(data []byte) []byte {
	var matches []match
	for r := range EscapeRules {
		for i, b := range data {
			if b == EscapeRules[r].Frame {
				matches = append(matches, match{pos: i, rule: r})
			}
		}
	}
	if len(matches) == 0 {
		return data
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	out := make([]byte, 0, len(data)+len(matches))
	last := 0
	for _, m := range matches {
		out = append(out, data[last:m.pos]...)
		out = append(out, EscapeRules[m.rule].Replacement[:]...)
		last = m.pos + 1
	}
	return append(out, data[last:]...)
}

// Decode replaces every escape sequence in data with the byte it stands for.
// The result is a new buffer of len(data)-matches bytes. A sequence start on
// the final byte cannot match and is kept literally. When nothing matches,
// data is returned as is.
func Decode(data []byte) []byte {
	var matches []match
	for r := range EscapeRules {
		seq := EscapeRules[r].Replacement
		for i := 0; i < len(data)-1; i++ {
			if data[i] == seq[0] && data[i+1] == seq[1] {
				matches = append(matches, match{pos: i, rule: r})
				i++
			}
		}
	}
	if len(matches) == 0 {
		return data
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	out := make([]byte, 0, len(data)-len(matches))
	last := 0
	for _, m := range matches {
		out = append(out, data[last:m.pos]...)
		out = append(out, EscapeRules[m.rule].Frame)
		last = m.pos + 2
	}
	return append(out, data[last:]...)
}

// Wrap escapes body and adds the start and stop bytes.
func Wrap(body []byte) []byte {
	escaped := Encode(body)
	frame := make([]byte, 0, len(escaped)+2)
	frame = append(frame, StartByte)
	frame = append(frame, escaped...)
	return append(frame, StopByte)
}

// Unwrap removes the delimiters from a raw frame and reverses the escapes.
// The returned frame keeps its start and stop bytes so that the offsets
// documented in the package comment apply.
func Unwrap(raw []byte) []byte {
	if len(raw) < 2 || raw[0] != StartByte || raw[len(raw)-1] != StopByte {
		return Decode(raw)
	}
	body := Decode(raw[1 : len(raw)-1])
	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, StartByte)
	frame = append(frame, body...)
	return append(frame, StopByte)
}
