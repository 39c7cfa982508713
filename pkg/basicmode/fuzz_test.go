// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// reservedHeavyBytes builds a random buffer biased towards reserved bytes
func reservedHeavyBytes(rng *rand.Rand) []byte {
	reserved := []byte{StartByte, StopByte, EscapeByte, HandshakeByte, DataEscByte, 0xB0, 0xB5, 0xBA, 0xB6, 0x3B}
	data := make([]byte, rng.Intn(64))
	for i := range data {
		if rng.Intn(2) == 0 {
			data[i] = reserved[rng.Intn(len(reserved))]
		} else {
			data[i] = byte(rng.Intn(256))
		}
	}
	return data
}

// countReserved counts bytes that Encode has to replace
func countReserved(data []byte) int {
	n := 0
	for _, b := range data {
		for _, r := range EscapeRules {
			if b == r.Frame {
				n++
			}
		}
	}
	return n
}

// TestFuzzEscape_RoundTrip verifies Decode(Encode(x)) == x for random input
func TestFuzzEscape_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		data := reservedHeavyBytes(rng)
		encoded := Encode(data)

		if len(encoded) != len(data)+countReserved(data) {
			t.Errorf("Round %d: encoded length %d, expected %d", i, len(encoded), len(data)+countReserved(data))
		}
		for _, r := range EscapeRules {
			if r.Frame != EscapeByte && bytes.IndexByte(encoded, r.Frame) >= 0 {
				t.Errorf("Round %d: reserved byte 0x%02X survived encoding", i, r.Frame)
			}
		}

		decoded := Decode(encoded)
		if !bytes.Equal(decoded, data) {
			t.Errorf("Round %d: round trip mismatch\n  in:  % X\n  out: % X", i, data, decoded)
		}
	}
}

// TestFuzzScanner_RandomBytes feeds random bytes to the scanner
// and verifies it never panics or holds more than the frame limit
func TestFuzzScanner_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		s := NewScanner()

		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		for _, b := range data {
			frame, _ := s.ScanByte(b)
			if frame != nil && (frame[0] != StartByte || frame[len(frame)-1] != StopByte) {
				t.Fatalf("Round %d: frame not delimited: % X", i, frame)
			}
			if s.Buffered() > MaxFrameSize {
				t.Fatalf("Round %d: buffer grew to %d", i, s.Buffered())
			}
		}
	}
}

// TestFuzzScanner_RandomMessages frames random messages and verifies the
// scanner and parser recover each one intact
func TestFuzzScanner_RandomMessages(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		msg := &Message{
			TargetAddr: byte(rng.Intn(256)),
			NetFn:      byte(rng.Intn(64)),
			SourceAddr: byte(rng.Intn(256)),
			Sequence:   byte(rng.Intn(64)),
			Command:    byte(rng.Intn(256)),
			Data:       reservedHeavyBytes(rng),
		}
		// Keep the fully escaped frame under MaxFrameSize
		if len(msg.Data) > 40 {
			msg.Data = msg.Data[:40]
		}

		s := NewScanner()
		var frame []byte
		for _, b := range msg.Frame() {
			got, err := s.ScanByte(b)
			if err != nil {
				t.Fatalf("Round %d: unexpected error: %v", i, err)
			}
			if got != nil {
				frame = got
			}
		}
		if frame == nil {
			t.Fatalf("Round %d: no frame produced", i)
		}

		unwrapped := Unwrap(frame)
		if !ValidChecksum(unwrapped) || !ValidHeaderChecksum(unwrapped) {
			t.Errorf("Round %d: checksum failed on % X", i, unwrapped)
		}
		parsed, err := ParseFrame(unwrapped)
		if err != nil {
			t.Fatalf("Round %d: parse error: %v", i, err)
		}
		if parsed.Sequence != msg.Sequence || parsed.Command != msg.Command || !bytes.Equal(parsed.Data, msg.Data) {
			t.Errorf("Round %d: parsed message differs", i)
		}
	}
}
