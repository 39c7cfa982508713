// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexBytes(t *testing.T) {
	tests := map[string]struct {
		in       []string
		expected []byte
		wantErr  bool
	}{
		"prefixed":    {in: []string{"0x06", "0X3b"}, expected: []byte{0x06, 0x3B}},
		"bare":        {in: []string{"06", "1", "ff"}, expected: []byte{0x06, 0x01, 0xFF}},
		"empty":       {in: []string{}, expected: []byte{}},
		"too large":   {in: []string{"100"}, wantErr: true},
		"not hex":     {in: []string{"zz"}, wantErr: true},
		"only prefix": {in: []string{"0x"}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseHexBytes(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseRawCommand(t *testing.T) {
	netFn, cmd, data, err := parseRawCommand([]string{"06", "38", "0e", "04"})
	require.NoError(t, err)
	assert.Equal(t, ipmi.NetFnApp, netFn)
	assert.Equal(t, uint8(ipmi.CmdGetChannelAuthCapabilities), cmd)
	assert.Equal(t, []byte{0x0E, 0x04}, data)

	_, _, data, err = parseRawCommand([]string{"06", "01"})
	require.NoError(t, err)
	assert.Empty(t, data)

	_, _, _, err = parseRawCommand([]string{"06"})
	assert.Error(t, err)

	_, _, _, err = parseRawCommand([]string{"40", "01"})
	assert.Error(t, err)
}

func TestFormatRawResponse(t *testing.T) {
	resp := &ipmi.RawResponse{Data: []byte{0x20, 0x01}}
	resp.SetStatus(ipmi.Success)

	out := formatRawResponse(ipmi.NetFnApp, ipmi.CmdGetDeviceID, resp)
	assert.Contains(t, out, "GET_DEVICE_ID")
	assert.Contains(t, out, "success (0x00)")
	assert.Contains(t, out, "20 01")

	failed := &ipmi.RawResponse{}
	failed.SetStatus(ipmi.TransportStatus(ipmi.FaultTimeout))
	assert.Contains(t, formatRawResponse(ipmi.NetFnApp, ipmi.CmdGetDeviceID, failed), "0xBE")
}
