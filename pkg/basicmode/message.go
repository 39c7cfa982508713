// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package basicmode

import "fmt"

// Message is one IPMI message as carried inside a Basic Mode frame.
//
// Target is the node the message is addressed to and Source the node that
// sent it. For a request the target is the BMC (responder); for a response
// the roles are swapped, but the sequence number always belongs to the
// original requester.
type Message struct {
	TargetAddr uint8
	NetFn      uint8 // 6-bit network function
	TargetLUN  uint8
	SourceAddr uint8
	Sequence   uint8 // 6-bit requester sequence number
	SourceLUN  uint8
	Command    uint8
	Data       []byte
}

// SequenceByte packs a sequence number and LUN the way they appear at
// OffsetSequence.
func SequenceByte(seq, lun uint8) byte {
	return (seq&0x3F)<<2 | lun&0x03
}

// SequenceByte returns the correlation byte of the message.
func (m *Message) SequenceByte() byte {
	return SequenceByte(m.Sequence, m.SourceLUN)
}

// Marshal returns the unescaped message body without delimiters, with
// both checksums filled in.
func (m *Message) Marshal() []byte {
	body := make([]byte, 0, 7+len(m.Data))
	body = append(body, m.TargetAddr, (m.NetFn&0x3F)<<2|m.TargetLUN&0x03)
	body = append(body, Checksum(body[0:2]))
	body = append(body, m.SourceAddr, m.SequenceByte(), m.Command)
	body = append(body, m.Data...)
	return append(body, Checksum(body[3:]))
}

// Frame returns the escaped message wrapped in start and stop bytes,
// ready to be written to the line.
func (m *Message) Frame() []byte {
	return Wrap(m.Marshal())
}

// ParseFrame splits an unescaped frame (delimiters included) into its
// header fields. Data holds everything between the command byte and
// checksum-2. Checksums are not verified here.
func ParseFrame(frame []byte) (*Message, error) {
	if len(frame) < OffsetData+2 {
		return nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}
	if frame[0] != StartByte || frame[len(frame)-1] != StopByte {
		return nil, fmt.Errorf("frame not delimited: first 0x%02X, last 0x%02X", frame[0], frame[len(frame)-1])
	}

	n := len(frame)
	data := make([]byte, n-2-OffsetData)
	copy(data, frame[OffsetData:n-2])

	return &Message{
		TargetAddr: frame[OffsetResponderAddr],
		NetFn:      frame[OffsetNetFn] >> 2,
		TargetLUN:  frame[OffsetNetFn] & 0x03,
		SourceAddr: frame[OffsetRequesterAddr],
		Sequence:   frame[OffsetSequence] >> 2,
		SourceLUN:  frame[OffsetSequence] & 0x03,
		Command:    frame[OffsetCommand],
		Data:       data,
	}, nil
}
