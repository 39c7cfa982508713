// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive session monitor",
	Long: `Log in and poll Get Device ID at a fixed interval, showing exchange
statistics, the session state and a log of recent events.

Raw commands can be typed into the input line as hex bytes, for example
"06 01" for Get Device ID, and are sent on the same session.

A poll that times out or finds the session gone triggers the client's
login retry, which shows up in the Login Retries counter.

Diagnostic logging is suppressed while the monitor runs; use --capture to
keep the frames.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "Device ID poll interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cs, err := newClientSession(active, zerolog.Nop(), true)
	if err != nil {
		return err
	}
	defer cs.Close()

	// Retry warnings still go to the terminal before the TUI takes over
	cs.log = logger
	if err := cs.open(cmd.Context()); err != nil {
		return err
	}

	p := tea.NewProgram(initialMonitorModel(cs, monitorInterval), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational events
}

type monitorModel struct {
	client   *ipmi.Client
	lineInfo string
	interval time.Duration

	stats     ipmi.Statistics
	state     ipmi.ClientState
	sessionID uint32

	device      *ipmi.GetDeviceIDResponse
	lastStatus  ipmi.Status
	lastPoll    time.Time
	lastLatency time.Duration
	polling     bool

	eventLog      []eventLogEntry
	maxLogEntries int

	rawInput textinput.Model

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type pollResultMsg struct {
	resp    *ipmi.GetDeviceIDResponse
	elapsed time.Duration
}

type rawResultMsg struct {
	netFn   ipmi.NetFn
	command uint8
	resp    *ipmi.RawResponse
}

func initialMonitorModel(cs *clientSession, interval time.Duration) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "netfn cmd [data...]  e.g. 06 01"
	ti.CharLimit = 3 * 40
	ti.Width = 50
	ti.Focus()

	return monitorModel{
		client:        cs.client,
		lineInfo:      cs.lineInfo,
		interval:      interval,
		stats:         cs.client.Stats(),
		state:         cs.client.State(),
		sessionID:     cs.client.SessionID(),
		lastStatus:    ipmi.Success,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		rawInput:      ti,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, monitorTickCmd(), pollCmd(m.client))
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// pollCmd reads the device ID off the UI goroutine
func pollCmd(client *ipmi.Client) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		resp := client.GetDeviceID()
		return pollResultMsg{resp: resp, elapsed: time.Since(start)}
	}
}

func rawCmdMsg(client *ipmi.Client, netFn ipmi.NetFn, command uint8, data []byte) tea.Cmd {
	return func() tea.Msg {
		return rawResultMsg{netFn: netFn, command: command, resp: client.Raw(netFn, command, data)}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submitRaw()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		m.refresh()
		if !m.polling && time.Since(m.lastPoll) >= m.interval {
			m.polling = true
			m.lastPoll = time.Now()
			return m, tea.Batch(monitorTickCmd(), pollCmd(m.client))
		}
		return m, monitorTickCmd()

	case pollResultMsg:
		m.polling = false
		m.lastPoll = time.Now()
		m.handlePoll(msg)
		m.refresh()
		return m, nil

	case rawResultMsg:
		m.handleRaw(msg)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.rawInput, cmd = m.rawInput.Update(msg)
	return m, cmd
}

func (m *monitorModel) refresh() {
	m.stats = m.client.Stats()
	m.stats.CalculateRates()

	state := m.client.State()
	if state != m.state {
		m.addLogEntry(fmt.Sprintf("State %s -> %s", m.state, state), state == ipmi.StateDisconnected)
		m.state = state
	}
	if id := m.client.SessionID(); id != m.sessionID && state == ipmi.StateAuthenticated {
		m.addLogEntry(fmt.Sprintf("New session 0x%08X", id), false)
		m.sessionID = id
	}
}

func (m *monitorModel) handlePoll(msg pollResultMsg) {
	m.lastLatency = msg.elapsed
	status := msg.resp.Status()

	if !status.OK() {
		if status != m.lastStatus {
			m.addLogEntry(fmt.Sprintf("GET_DEVICE_ID: %s", status), true)
		}
		m.lastStatus = status
		return
	}

	if !m.lastStatus.OK() {
		m.addLogEntry("GET_DEVICE_ID recovered", false)
	}
	if m.device == nil {
		m.addLogEntry(fmt.Sprintf("Device 0x%02X firmware %s IPMI %s",
			msg.resp.DeviceID, msg.resp.FirmwareVersion(), msg.resp.IPMIVersionString()), false)
	}
	m.lastStatus = status
	m.device = msg.resp
}

func (m monitorModel) submitRaw() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.rawInput.Value())
	if line == "" {
		return m, nil
	}
	m.rawInput.Reset()

	netFn, command, data, err := parseRawCommand(strings.Fields(line))
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Raw: %v", err), true)
		return m, nil
	}
	m.addLogEntry(fmt.Sprintf("Sending %s % X", ipmi.FormatCommand(netFn, command), data), false)
	return m, rawCmdMsg(m.client, netFn, command, data)
}

func (m *monitorModel) handleRaw(msg rawResultMsg) {
	name := ipmi.FormatCommand(msg.netFn, msg.command)
	status := msg.resp.Status()
	if !status.OK() {
		m.addLogEntry(fmt.Sprintf("%s: %s", name, status), true)
		return
	}
	if len(msg.resp.Data) == 0 {
		m.addLogEntry(fmt.Sprintf("%s: ok", name), false)
		return
	}
	m.addLogEntry(fmt.Sprintf("%s: % X", name, msg.resp.Data), false)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("IPMISERIAL - SESSION MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Poll: %s | Press Esc to quit", m.lineInfo, m.interval)))
	s.WriteString("\n\n")

	// Session state
	stateText := fmt.Sprintf("%s  session 0x%08X", m.state, m.sessionID)
	switch m.state {
	case ipmi.StateAuthenticated:
		s.WriteString(statsValueStyle.Render("✓ " + stateText))
	case ipmi.StateDisconnected:
		s.WriteString(errorStyle.Render("✗ " + stateText))
	default:
		s.WriteString(warningStyle.Render("⏳ " + stateText))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.renderStats()))
	s.WriteString("\n\n")

	if m.device != nil {
		s.WriteString(statsLabelStyle.Render("Device:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(m.renderDevice()))
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.renderLog()))
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("Raw: "))
	s.WriteString(m.rawInput.View())

	return s.String()
}

func (m monitorModel) renderStats() string {
	var b strings.Builder
	errCount := m.stats.Errors()

	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Requests:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Requests)),
		statsLabelStyle.Render("Responses:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Responses)),
		statsLabelStyle.Render("Errors:"), countStyle(errCount).Render(fmt.Sprintf("%d", errCount)),
	)

	if errCount > 0 {
		fmt.Fprintf(&b, "%s %d   %s %d   %s %d   %s %d   %s %d\n",
			headerStyle.Render("timeouts"), m.stats.Timeouts,
			headerStyle.Render("checksum"), m.stats.ChecksumErrors,
			headerStyle.Render("malformed"), m.stats.MalformedFrames,
			headerStyle.Render("bmc codes"), m.stats.ProtocolErrors,
			headerStyle.Render("invalid data"), m.stats.InvalidData,
		)
	}

	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Discarded:"), countStyle(m.stats.DiscardedFrames).Render(fmt.Sprintf("%d", m.stats.DiscardedFrames)),
		statsLabelStyle.Render("Login Retries:"), countStyle(m.stats.LoginRetries).Render(fmt.Sprintf("%d", m.stats.LoginRetries)),
		statsLabelStyle.Render("Latency:"), statsValueStyle.Render(m.lastLatency.Round(time.Millisecond).String()),
	)

	fmt.Fprintf(&b, "%s %s   %s %s",
		statsLabelStyle.Render("Request Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f req/s", m.stats.RequestRate)),
		statsLabelStyle.Render("Error Rate:"), countStyle(errCount).Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate)),
	)
	return b.String()
}

func countStyle(n uint64) lipgloss.Style {
	if n > 0 {
		return errorStyle
	}
	return statsValueStyle
}

func (m monitorModel) renderDevice() string {
	d := m.device
	return fmt.Sprintf("%s 0x%02X rev %d   %s %s   %s %s\n%s %d   %s 0x%04X",
		statsLabelStyle.Render("ID:"), d.DeviceID, d.DeviceRevision,
		statsLabelStyle.Render("Firmware:"), statsValueStyle.Render(d.FirmwareVersion()),
		statsLabelStyle.Render("IPMI:"), statsValueStyle.Render(d.IPMIVersionString()),
		statsLabelStyle.Render("Manufacturer:"), d.ManufacturerID,
		statsLabelStyle.Render("Product:"), d.ProductID,
	)
}

func (m monitorModel) renderLog() string {
	// Reserve space for header, stats, device and input
	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}

	if len(m.eventLog) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	var b strings.Builder
	startIdx := max(len(m.eventLog)-logHeight, 0)
	for _, entry := range m.eventLog[startIdx:] {
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&b, "%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message))
		}
	}
	return b.String()
}
