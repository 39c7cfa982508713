// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"sync"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/rs/zerolog"
)

// Client is an IPMI serial Basic Mode client. One Client owns one line and
// one session; it is safe for concurrent use, but exchanges on the line
// run one at a time.
type Client struct {
	cfg  Config
	dial Dialer
	log  zerolog.Logger
	sink FrameSink

	// lineMu serializes sequence assignment, the write and the matching
	// read, and guards port and transport
	lineMu    sync.Mutex
	port      Port
	transport *transport

	session sessionContext
	seq     sequenceCounter

	statsMu sync.Mutex
	stats   *Statistics
}

// Option configures a Client
type Option func(*Client)

// WithDialer replaces the serial port opener
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithFrameSink receives a copy of every frame written and read
func WithFrameSink(s FrameSink) Option {
	return func(c *Client) {
		c.sink = s
	}
}

// NewClient validates cfg and returns a disconnected client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		dial:  OpenSerial,
		log:   zerolog.Nop(),
		stats: NewStatistics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.seq.reset()
	return c, nil
}

// State returns the current lifecycle state
func (c *Client) State() ClientState {
	return c.session.getState()
}

// SessionID returns the active session identifier, or zero
func (c *Client) SessionID() uint32 {
	return c.session.sessionID()
}

// AuthType returns the authentication type negotiated at the last login
func (c *Client) AuthType() AuthType {
	return c.session.getAuthType()
}

// NextSequence returns the sequence number the next request will use
func (c *Client) NextSequence() uint8 {
	return c.seq.peek()
}

// Config returns the effective configuration
func (c *Client) Config() Config {
	return c.cfg
}

// Stats returns a snapshot of the exchange statistics
func (c *Client) Stats() Statistics {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.CalculateRates()
	return *c.stats
}

// ResetStats clears the exchange statistics
func (c *Client) ResetStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.Reset()
}

func (c *Client) updateStats(fn func(s *Statistics)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(c.stats)
}

func (c *Client) setState(state ClientState) {
	prev := c.session.setState(state)
	if prev != state {
		c.log.Debug().Str("from", prev.String()).Str("state", state.String()).Msg("client state changed")
	}
}

// Connect opens the line. It is only valid from StateDisconnected; from
// any other state it returns a *StateError and leaves the client alone.
func (c *Client) Connect() error {
	if state, ok := c.session.transition(StateDisconnected, StateConnecting); !ok {
		return &StateError{Op: "connect", State: state}
	}
	c.log.Debug().Str("state", StateConnecting.String()).Msg("client state changed")
	c.session.clear()

	port, err := c.dial(&c.cfg)
	if err != nil {
		c.log.Error().Err(err).Str("port", c.cfg.Port).Msg("failed to open line")
		c.setState(StateDisconnected)
		return err
	}

	c.lineMu.Lock()
	stale := c.port
	c.port = port
	c.transport = newTransport(port, c.log)
	c.transport.onDiscard = c.discarded
	c.lineMu.Unlock()

	if stale != nil {
		stale.Close()
	}

	c.setState(StateConnected)
	return nil
}

// Close ends the session and releases the line. A hard close skips the
// Close Session request.
func (c *Client) Close(hard bool) error {
	if !hard {
		c.Logoff()
	}
	c.session.setSessionID(0)
	c.setState(StateDisconnected)

	c.lineMu.Lock()
	port := c.port
	c.port = nil
	c.transport = nil
	c.lineMu.Unlock()

	if port != nil {
		return port.Close()
	}
	return nil
}

// Execute sends req and returns the response built by newResponse. The
// response always carries a Status; Execute never fails any other way.
//
// When allowRetry is set and the configuration does not override it, a
// timeout or a lost-privilege answer triggers one capability probe, one
// login and one more attempt of req with retry disabled.
func (c *Client) Execute(req Request, newResponse ResponseFactory, allowRetry bool) Response {
	status, body := c.exchange(req)

	var resp Response
	if status.OK() {
		resp = newResponse()
		if err := resp.UnmarshalData(body); err != nil {
			c.log.Warn().
				Err(err).
				Str("command", FormatCommand(req.NetFn(), req.Command())).
				Str("data", basicmode.HexString(body)).
				Msg("failed to parse response")
			resp = nil
			status = TransportStatus(FaultInvalidData)
		}
	}
	c.updateStats(func(s *Statistics) { s.Update(status) })

	if resp != nil {
		resp.SetStatus(status)
		return resp
	}

	if allowRetry && !c.cfg.OverrideRetry && (status.IsTimeout() || status.IsPrivilegeLost()) {
		return c.loginRetry(req, newResponse, status)
	}

	resp = newResponse()
	resp.SetStatus(status)
	return resp
}

// Do is Execute for callers that want the concrete response type back
func Do[T Response](c *Client, req Request, newResponse func() T, allowRetry bool) T {
	return c.Execute(req, func() Response { return newResponse() }, allowRetry).(T)
}

// exchange runs one request/response round trip and classifies the answer.
// On success it also returns the response body after the completion code.
func (c *Client) exchange(req Request) (Status, []byte) {
	name := FormatCommand(req.NetFn(), req.Command())

	data, err := req.MarshalData()
	if err != nil {
		c.log.Error().Err(err).Str("command", name).Msg("failed to serialize request")
		return TransportStatus(FaultInvalidData), nil
	}

	c.lineMu.Lock()
	defer c.lineMu.Unlock()

	if c.transport == nil {
		return TransportStatus(FaultNotConnected), nil
	}

	msg := basicmode.Message{
		TargetAddr: c.cfg.ResponderAddress,
		NetFn:      uint8(req.NetFn()),
		SourceAddr: c.cfg.RequesterAddress,
		Sequence:   c.seq.next(),
		Command:    req.Command(),
		Data:       data,
	}
	seq := msg.SequenceByte()
	frame := msg.Frame()

	c.log.Debug().Str("command", name).Uint8("seq", msg.Sequence).Msg("sending request")
	c.trace(DirectionOutbound, seq, frame)
	c.updateStats(func(s *Statistics) { s.Requests++ })

	raw, err := c.transport.SendReceive(frame, seq)
	if err != nil {
		c.log.Warn().Err(err).Str("command", name).Uint8("seq", msg.Sequence).Msg("no response")
		return TransportStatus(FaultTimeout), nil
	}
	c.trace(DirectionInbound, seq, raw)

	status, body := c.classify(basicmode.Unwrap(raw))
	if status.Kind == StatusTransport {
		c.log.Warn().
			Str("command", name).
			Str("status", status.String()).
			Str("frame", basicmode.HexString(raw)).
			Msg("rejected response")
	}
	return status, body
}

// classify validates an unescaped response frame and extracts its body
func (c *Client) classify(frame []byte) (Status, []byte) {
	n := len(frame)
	if n < basicmode.MinResponseSize {
		return TransportStatus(FaultMalformed), nil
	}

	switch frame[basicmode.OffsetResponderAddr] {
	case c.cfg.RequesterAddress, RemoteConsoleAddress, SerialConsoleAddress:
	default:
		return TransportStatus(FaultUnknownResponder), nil
	}

	if !basicmode.ValidChecksum(frame) {
		return TransportStatus(FaultChecksum), nil
	}

	code := CompletionCode(frame[basicmode.OffsetCompletionCode])
	if code != CompletionOK {
		return ProtocolStatus(code), nil
	}
	return Success, frame[basicmode.OffsetCompletionCode+1 : n-2]
}

// loginRetry re-establishes the session after a failure and replays req
// once. If the target cannot be confirmed or the login fails, the original
// failure is returned.
func (c *Client) loginRetry(req Request, newResponse ResponseFactory, failure Status) Response {
	c.log.Warn().
		Str("command", FormatCommand(req.NetFn(), req.Command())).
		Str("status", failure.String()).
		Msg("session lost, logging in again")
	c.updateStats(func(s *Statistics) { s.LoginRetries++ })

	c.setState(StateConnecting)

	if c.confirmTarget() {
		err := c.Login()
		if err == nil {
			return c.Execute(req, newResponse, false)
		}
		c.log.Error().Err(err).Msg("login retry failed")
	}

	resp := newResponse()
	resp.SetStatus(failure)
	return resp
}

// confirmTarget probes the channel and reports whether the device is one
// this client should log in to
func (c *Client) confirmTarget() bool {
	caps := c.ProbeCapabilities()
	if !caps.Status().OK() {
		c.log.Warn().Str("status", caps.Status().String()).Msg("capability probe failed")
		return false
	}
	if c.cfg.TargetAuxData != nil && caps.OEMAuxData != *c.cfg.TargetAuxData {
		c.log.Warn().
			Uint8("aux", caps.OEMAuxData).
			Uint8("want", *c.cfg.TargetAuxData).
			Msg("capability probe reports a different target")
		return false
	}
	return true
}

func (c *Client) trace(dir Direction, seq uint8, frame []byte) {
	c.log.Debug().Str("dir", dir.String()).Uint8("seq", seq).Str("frame", basicmode.HexString(frame)).Msg("frame")
	if c.sink != nil {
		c.sink.Frame(dir, seq, frame)
	}
}

func (c *Client) discarded(seq uint8, raw []byte) {
	c.updateStats(func(s *Statistics) { s.DiscardedFrames++ })
	c.trace(DirectionDiscarded, seq, raw)
}
