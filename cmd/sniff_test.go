// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deviceIDFrame(seq uint8) []byte {
	msg := basicmode.Message{
		TargetAddr: ipmi.BMCAddress,
		NetFn:      uint8(ipmi.NetFnApp),
		SourceAddr: ipmi.RemoteConsoleAddress,
		Sequence:   seq,
		Command:    ipmi.CmdGetDeviceID,
	}
	return msg.Frame()
}

func TestSniffFrames(t *testing.T) {
	var line bytes.Buffer
	line.Write([]byte{0x00, 0x11}) // noise before the first frame
	line.Write(deviceIDFrame(3))
	line.WriteByte(basicmode.StartByte)
	line.Write(bytes.Repeat([]byte{0x42}, basicmode.MaxFrameSize+1))
	line.Write(deviceIDFrame(4))

	var out []string
	err := sniffFrames(&line, func(s string) { out = append(out, s) }, func() bool { return false })
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Contains(t, out[0], "APP (0x06) cmd=0x01 seq=3")
	assert.Contains(t, out[0], "checksum=ok")
	assert.Contains(t, out[1], "[ERROR]")
	assert.Contains(t, out[2], "seq=4")
}

type brokenLine struct{}

func (brokenLine) Read([]byte) (int, error) { return 0, errors.New("framing error") }

func TestSniffFrames_ReadError(t *testing.T) {
	err := sniffFrames(brokenLine{}, func(string) {}, func() bool { return false })
	assert.ErrorContains(t, err, "framing error")
}

func TestSniffFrames_Stop(t *testing.T) {
	err := sniffFrames(strings.NewReader("ignored"), func(string) {}, func() bool { return true })
	assert.NoError(t, err)
}
