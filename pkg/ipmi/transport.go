// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/rs/zerolog"
)

// transport runs one request/response exchange at a time on a Port
type transport struct {
	port    Port
	scanner *basicmode.Scanner
	log     zerolog.Logger

	// onDiscard is called for every frame that does not match the request
	onDiscard func(seq uint8, raw []byte)
}

func newTransport(port Port, log zerolog.Logger) *transport {
	return &transport{
		port:    port,
		scanner: basicmode.NewScanner(),
		log:     log,
	}
}

// SendReceive writes a framed request in one call and reads byte by byte
// until a frame carrying seq at the sequence offset arrives. The returned
// frame is raw: delimiters included, escapes still applied.
//
// Frames with another sequence byte are dropped and scanning resumes.
// Every failure (read timeout, end of stream, read error, oversized
// frame) wraps ErrTimeout.
func (t *transport) SendReceive(frame []byte, seq uint8) ([]byte, error) {
	if _, err := t.port.Write(frame); err != nil {
		return nil, fmt.Errorf("%w: write failed: %v", ErrTimeout, err)
	}

	t.scanner.Reset()
	buf := make([]byte, 1)

	for {
		n, err := t.port.Read(buf)
		if n == 0 {
			return nil, readFailure(err)
		}

		raw, scanErr := t.scanner.ScanByte(buf[0])
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, scanErr)
		}
		if raw == nil {
			continue
		}

		candidate := basicmode.Unwrap(raw)
		if len(candidate) > basicmode.OffsetSequence && candidate[basicmode.OffsetSequence] == seq {
			return raw, nil
		}

		t.log.Debug().
			Uint8("want", seq).
			Str("frame", basicmode.HexString(raw)).
			Msg("discarding frame with foreign sequence")
		if t.onDiscard != nil {
			t.onDiscard(seq, raw)
		}
	}
}

// readFailure classifies a read that produced no byte
func readFailure(err error) error {
	if err == nil {
		return ErrTimeout
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: end of stream", ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("%w: read failed: %v", ErrTimeout, err)
}
