// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

// Login runs the challenge/activate handshake and raises the session to
// the configured privilege level. It is valid from StateConnected, and
// from StateConnecting after an earlier attempt failed. On failure the
// client is left in StateConnecting.
func (c *Client) Login() error {
	state := c.State()
	if state != StateConnected && state != StateConnecting {
		return &StateError{Op: "login", State: state}
	}

	if err := c.login(); err != nil {
		c.session.setSessionID(0)
		c.setState(StateConnecting)
		return err
	}
	return nil
}

func (c *Client) login() error {
	c.setState(StateSessionChallenge)

	authType := NegotiateAuthType(c.session.getCapabilities(), c.cfg.AuthType)
	c.log.Debug().Str("auth", authType.String()).Str("user", c.cfg.Username).Msg("requesting session challenge")

	challenge := Do(c, &GetSessionChallengeRequest{
		AuthType: authType,
		Username: c.cfg.Username,
	}, func() *GetSessionChallengeResponse { return &GetSessionChallengeResponse{} }, false)
	if !challenge.Status().OK() {
		return &LoginError{Step: "get session challenge", Status: challenge.Status()}
	}
	c.session.setSessionID(challenge.TemporarySessionID)

	c.setState(StateActivateSession)

	code, err := AuthCode(authType, challenge.TemporarySessionID, challenge.Challenge, c.cfg.Password)
	if err != nil {
		return &LoginError{Step: "activate session", Err: err}
	}

	activate := Do(c, &ActivateSessionRequest{
		AuthType:           authType,
		Privilege:          c.cfg.Privilege,
		AuthCode:           code,
		InitialOutboundSeq: 1,
	}, func() *ActivateSessionResponse { return &ActivateSessionResponse{} }, false)
	if !activate.Status().OK() {
		return &LoginError{Step: "activate session", Status: activate.Status()}
	}

	c.session.setSessionID(activate.SessionID)
	c.session.setAuthType(authType)
	c.seq.reset()
	c.setState(StateAuthenticated)

	c.log.Info().
		Uint32("session", activate.SessionID).
		Str("auth", authType.String()).
		Str("max_privilege", activate.MaxPrivilege.String()).
		Msg("session activated")

	priv := c.SetSessionPrivilegeLevel(c.cfg.Privilege)
	if !priv.Status().OK() {
		c.log.Warn().
			Str("privilege", c.cfg.Privilege.String()).
			Str("status", priv.Status().String()).
			Msg("failed to set session privilege level")
	}
	return nil
}

// Logoff closes the active session, if any, and marks the client
// disconnected. The Close Session result is not checked.
func (c *Client) Logoff() {
	if id := c.session.sessionID(); id != 0 {
		resp := c.CloseSession(id)
		if !resp.Status().OK() {
			c.log.Debug().Uint32("session", id).Str("status", resp.Status().String()).Msg("close session not acknowledged")
		}
	}
	c.session.setSessionID(0)
	c.setState(StateDisconnected)
}

// ProbeCapabilities asks the BMC which authentication types the current
// channel supports. It is never retried; a successful answer is kept for
// the next authentication type negotiation.
func (c *Client) ProbeCapabilities() *GetChannelAuthCapabilitiesResponse {
	resp := Do(c, &GetChannelAuthCapabilitiesRequest{
		Channel:   CurrentChannel,
		Privilege: c.cfg.Privilege,
	}, func() *GetChannelAuthCapabilitiesResponse { return &GetChannelAuthCapabilitiesResponse{} }, false)

	if resp.Status().OK() {
		c.session.setCapabilities(resp)
	}
	return resp
}

// SetSessionPrivilegeLevel changes the privilege of the active session
func (c *Client) SetSessionPrivilegeLevel(level PrivilegeLevel) *SetSessionPrivilegeLevelResponse {
	return Do(c, &SetSessionPrivilegeLevelRequest{Privilege: level},
		func() *SetSessionPrivilegeLevelResponse { return &SetSessionPrivilegeLevelResponse{} }, false)
}

// CloseSession ends the given session without touching client state
func (c *Client) CloseSession(id uint32) *CloseSessionResponse {
	return Do(c, &CloseSessionRequest{SessionID: id},
		func() *CloseSessionResponse { return &CloseSessionResponse{} }, false)
}

// GetDeviceID identifies the BMC
func (c *Client) GetDeviceID() *GetDeviceIDResponse {
	return Do(c, &GetDeviceIDRequest{},
		func() *GetDeviceIDResponse { return &GetDeviceIDResponse{} }, true)
}

// Raw sends an arbitrary command and returns its body unparsed
func (c *Client) Raw(netFn NetFn, cmd uint8, data []byte) *RawResponse {
	return Do(c, &RawRequest{Fn: netFn, Cmd: cmd, Data: data},
		func() *RawResponse { return &RawResponse{} }, true)
}
