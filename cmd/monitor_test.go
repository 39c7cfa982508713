// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(t *testing.T) monitorModel {
	t.Helper()
	cfg := ipmi.DefaultConfig()
	client, err := ipmi.NewClient(cfg)
	require.NoError(t, err)
	return initialMonitorModel(&clientSession{client: client, lineInfo: "test line"}, time.Second)
}

func TestMonitor_PollResults(t *testing.T) {
	m := newTestMonitor(t)

	failed := &ipmi.GetDeviceIDResponse{}
	failed.SetStatus(ipmi.TransportStatus(ipmi.FaultTimeout))
	updated, _ := m.Update(pollResultMsg{resp: failed, elapsed: time.Second})
	m = updated.(monitorModel)
	require.Len(t, m.eventLog, 1)
	assert.True(t, m.eventLog[0].isError)
	assert.Contains(t, m.eventLog[0].message, "timeout")

	// The same failure again is not logged twice
	updated, _ = m.Update(pollResultMsg{resp: failed})
	m = updated.(monitorModel)
	assert.Len(t, m.eventLog, 1)

	ok := &ipmi.GetDeviceIDResponse{DeviceID: 0x20, FirmwareMajor: 1, FirmwareMinor: 0x05, IPMIVersion: 0x51}
	ok.SetStatus(ipmi.Success)
	updated, _ = m.Update(pollResultMsg{resp: ok, elapsed: 20 * time.Millisecond})
	m = updated.(monitorModel)
	require.Len(t, m.eventLog, 3)
	assert.Contains(t, m.eventLog[1].message, "recovered")
	assert.Contains(t, m.eventLog[2].message, "firmware 1.05 IPMI 1.5")
	assert.Equal(t, ok, m.device)
	assert.False(t, m.polling)
	assert.Contains(t, m.View(), "Firmware:")
}

func TestMonitor_RawInput(t *testing.T) {
	m := newTestMonitor(t)

	m.rawInput.SetValue("zz 01")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(monitorModel)
	assert.Nil(t, cmd)
	require.Len(t, m.eventLog, 1)
	assert.True(t, m.eventLog[0].isError)
	assert.Empty(t, m.rawInput.Value())

	// Not connected, so the command completes immediately with a fault
	m.rawInput.SetValue("06 01")
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(monitorModel)
	require.NotNil(t, cmd)

	result, ok := cmd().(rawResultMsg)
	require.True(t, ok)
	assert.Equal(t, ipmi.FaultNotConnected, result.resp.Status().Fault)

	updated, _ = m.Update(result)
	m = updated.(monitorModel)
	last := m.eventLog[len(m.eventLog)-1]
	assert.True(t, last.isError)
	assert.Contains(t, last.message, "GET_DEVICE_ID")
}

func TestMonitor_Quit(t *testing.T) {
	m := newTestMonitor(t)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, updated.(monitorModel).quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMonitor_LogBounded(t *testing.T) {
	m := newTestMonitor(t)
	for i := 0; i < m.maxLogEntries+10; i++ {
		m.addLogEntry("event", false)
	}
	assert.Len(t, m.eventLog, m.maxLogEntries)
}
