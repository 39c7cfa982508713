// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import "sync"

// ClientState is the position of the client in the session lifecycle
type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateSessionChallenge
	StateActivateSession
	StateAuthenticated
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSessionChallenge:
		return "session_challenge"
	case StateActivateSession:
		return "activate_session"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// sessionContext is the per-client session state. The session identifier
// is read by the orchestrator and written by the login and logoff paths,
// so every field sits behind mu.
type sessionContext struct {
	mu           sync.Mutex
	state        ClientState
	id           uint32
	authType     AuthType
	capabilities *GetChannelAuthCapabilitiesResponse
}

func (s *sessionContext) getState() ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState stores the new state and returns the previous one
func (s *sessionContext) setState(state ClientState) ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = state
	return prev
}

// transition moves from one state to another only if the current state
// is from. It returns the state observed.
func (s *sessionContext) transition(from, to ClientState) (ClientState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return s.state, false
	}
	s.state = to
	return from, true
}

func (s *sessionContext) sessionID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *sessionContext) setSessionID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *sessionContext) setAuthType(t AuthType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authType = t
}

func (s *sessionContext) getAuthType() AuthType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authType
}

func (s *sessionContext) getCapabilities() *GetChannelAuthCapabilitiesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capabilities
}

func (s *sessionContext) setCapabilities(caps *GetChannelAuthCapabilitiesResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities = caps
}

// clear forgets everything learned from the previous connection
func (s *sessionContext) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = 0
	s.authType = AuthTypeNone
	s.capabilities = nil
}

// sequenceCounter hands out request sequence numbers. It wraps at 256;
// only the low six bits reach the wire.
type sequenceCounter struct {
	mu    sync.Mutex
	value uint8
}

// next returns the current value and advances the counter
func (c *sequenceCounter) next() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.value
	c.value++
	return v
}

// reset restarts numbering at 1
func (c *sequenceCounter) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = 1
}

func (c *sequenceCounter) peek() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
