// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

// Direction tells where a traced frame was going
type Direction uint8

const (
	DirectionOutbound  Direction = iota // Request written to the line
	DirectionInbound                    // Response matched to the request
	DirectionDiscarded                  // Frame read but not matched
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "TX"
	case DirectionInbound:
		return "RX"
	case DirectionDiscarded:
		return "DROP"
	default:
		return "?"
	}
}

// FrameSink receives a copy of every raw frame the client writes or reads.
// seq is the correlation byte of the exchange the frame belongs to.
type FrameSink interface {
	Frame(dir Direction, seq uint8, frame []byte)
}

// FrameSinkFunc adapts a function to FrameSink
type FrameSinkFunc func(dir Direction, seq uint8, frame []byte)

func (f FrameSinkFunc) Frame(dir Direction, seq uint8, frame []byte) {
	f(dir, seq, frame)
}
