// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import (
	"bytes"
	"testing"
)

// ============================================================
// Encode
// ============================================================

func TestEncode_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"no reserved bytes", []byte{0x01, 0x02, 0x03}, []byte{0x01, 0x02, 0x03}},
		{"start byte", []byte{0x01, 0xA0, 0x02}, []byte{0x01, 0xAA, 0xB0, 0x02}},
		{"stop byte", []byte{0xA5}, []byte{0xAA, 0xB5}},
		{"escape byte", []byte{0xAA}, []byte{0xAA, 0xBA}},
		{"handshake byte", []byte{0xA6}, []byte{0xAA, 0xB6}},
		{"data escape byte", []byte{0x1B}, []byte{0xAA, 0x3B}},
		{
			"mixed order",
			[]byte{0x1B, 0x00, 0xA5, 0xAA, 0xA0, 0xA6},
			[]byte{0xAA, 0x3B, 0x00, 0xAA, 0xB5, 0xAA, 0xBA, 0xAA, 0xB0, 0xAA, 0xB6},
		},
		{"repeated", []byte{0xA0, 0xA0, 0xA0}, []byte{0xAA, 0xB0, 0xAA, 0xB0, 0xAA, 0xB0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.input)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Encode(% X): expected % X, got % X", tt.input, tt.expected, got)
			}
		})
	}
}

func TestEncode_NoMatchReturnsInput(t *testing.T) {
	input := []byte{0x10, 0x20, 0x30}
	got := Encode(input)
	if !bytes.Equal(got, input) {
		t.Fatalf("Expected % X, got % X", input, got)
	}
	if &got[0] != &input[0] {
		t.Error("Expected no-op encode to return the input buffer")
	}
}

func TestEncode_DoesNotMutateInput(t *testing.T) {
	input := []byte{0x01, 0xA0, 0x02}
	Encode(input)
	if !bytes.Equal(input, []byte{0x01, 0xA0, 0x02}) {
		t.Errorf("Input was modified: % X", input)
	}
}

// ============================================================
// Decode
// ============================================================

func TestDecode_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"no sequences", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"start sequence", []byte{0x01, 0xAA, 0xB0, 0x02}, []byte{0x01, 0xA0, 0x02}},
		{"all rules", []byte{0xAA, 0xBA, 0xAA, 0xB0, 0xAA, 0xB5, 0xAA, 0xB6, 0xAA, 0x3B}, []byte{0xAA, 0xA0, 0xA5, 0xA6, 0x1B}},
		{"trailing marker is literal", []byte{0x01, 0x02, 0xAA}, []byte{0x01, 0x02, 0xAA}},
		{"marker without known follower", []byte{0xAA, 0x01}, []byte{0xAA, 0x01}},
		{"single marker", []byte{0xAA}, []byte{0xAA}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.input)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Decode(% X): expected % X, got % X", tt.input, tt.expected, got)
			}
		})
	}
}

func TestDecode_LengthInvariant(t *testing.T) {
	input := []byte{0x05, 0xAA, 0xB5, 0x06, 0xAA, 0xBA, 0xAA}
	got := Decode(input)
	if len(got) != len(input)-2 {
		t.Errorf("Expected length %d, got %d", len(input)-2, len(got))
	}
}

// ============================================================
// Framing
// ============================================================

func TestWrap_Scenario(t *testing.T) {
	payload := []byte{0x01, 0xA0, 0x02}

	encoded := Encode(payload)
	if !bytes.Equal(encoded, []byte{0x01, 0xAA, 0xB0, 0x02}) {
		t.Fatalf("Encode: got % X", encoded)
	}

	frame := Wrap(payload)
	expected := []byte{0xA0, 0x01, 0xAA, 0xB0, 0x02, 0xA5}
	if !bytes.Equal(frame, expected) {
		t.Fatalf("Wrap: expected % X, got % X", expected, frame)
	}

	decoded := Decode(frame[1 : len(frame)-1])
	if !bytes.Equal(decoded, payload) {
		t.Errorf("Decode: expected % X, got % X", payload, decoded)
	}
}

func TestUnwrap(t *testing.T) {
	raw := []byte{0xA0, 0x01, 0xAA, 0xB0, 0x02, 0xA5}
	got := Unwrap(raw)
	expected := []byte{0xA0, 0x01, 0xA0, 0x02, 0xA5}
	if !bytes.Equal(got, expected) {
		t.Errorf("Expected % X, got % X", expected, got)
	}
}

func TestUnwrap_Undelimited(t *testing.T) {
	got := Unwrap([]byte{0x01, 0xAA, 0xB5})
	if !bytes.Equal(got, []byte{0x01, 0xA5}) {
		t.Errorf("Expected 01 A5, got % X", got)
	}
}
