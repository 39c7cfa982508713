// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import "errors"

// ErrFrameTooLarge is returned when a capture grows past MaxFrameSize
// without a stop byte.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Scanner states
const (
	stateIdle = iota
	stateCapturing
)

// Scanner accumulates raw line bytes into delimited frames. Bytes outside
// a start/stop pair are dropped. A start byte always restarts the capture,
// so a partial frame followed by a fresh one yields only the fresh one.
type Scanner struct {
	state  int
	buffer []byte
}

// NewScanner creates an idle scanner
func NewScanner() *Scanner {
	return &Scanner{
		state:  stateIdle,
		buffer: make([]byte, 0, MaxFrameSize),
	}
}

// Reset drops any partial capture
func (s *Scanner) Reset() {
	s.state = stateIdle
	s.buffer = s.buffer[:0]
}

// Capturing reports whether a start byte has been seen and not yet closed
func (s *Scanner) Capturing() bool {
	return s.state == stateCapturing
}

// Buffered returns the number of bytes held for the current capture
func (s *Scanner) Buffered() int {
	return len(s.buffer)
}

// ScanByte processes a single byte.
// Returns the raw frame (delimiters included, still escaped) when b closes
// a capture, or nil while the frame is incomplete.
// Returns ErrFrameTooLarge and resets when the capture overflows.
func (s *Scanner) ScanByte(b byte) ([]byte, error) {
	switch {
	case b == StartByte:
		s.buffer = append(s.buffer[:0], b)
		s.state = stateCapturing
		return nil, nil

	case s.state != stateCapturing:
		return nil, nil

	case b == StopByte:
		s.buffer = append(s.buffer, b)
		if len(s.buffer) > MaxFrameSize {
			s.Reset()
			return nil, ErrFrameTooLarge
		}
		frame := make([]byte, len(s.buffer))
		copy(frame, s.buffer)
		s.Reset()
		return frame, nil
	}

	s.buffer = append(s.buffer, b)
	if len(s.buffer) > MaxFrameSize {
		s.Reset()
		return nil, ErrFrameTooLarge
	}
	return nil, nil
}
