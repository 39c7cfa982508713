// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

// Checksum returns the two's complement of the 8-bit sum of data, so that
// adding the checksum to the sum of data yields zero.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}

// ValidChecksum reports whether checksum-2 of an unescaped frame matches
// the bytes it covers ([4..n-3]). Frames too short to carry checksum-2
// are never valid.
func ValidChecksum(frame []byte) bool {
	n := len(frame)
	if n < OffsetRequesterAddr+3 {
		return false
	}
	return Checksum(frame[OffsetRequesterAddr:n-2]) == frame[n-2]
}

// ValidHeaderChecksum reports whether checksum-1 matches bytes [1..2].
func ValidHeaderChecksum(frame []byte) bool {
	if len(frame) <= OffsetChecksum1 {
		return false
	}
	return Checksum(frame[OffsetResponderAddr:OffsetChecksum1]) == frame[OffsetChecksum1]
}
