// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/capture"
	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retry budget for opening the line and for logging in
const (
	retryInitialInterval = 250 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
	retryMaxElapsedTime  = 10 * time.Second
)

// clientSession bundles a client with the capture file it writes to
type clientSession struct {
	client      *ipmi.Client
	capture     *capture.Writer
	capturePath string
	lineInfo    string
	log         zerolog.Logger
}

// newClientSession builds a disconnected client from the settings. The IPMI
// password is only asked for when the caller intends to log in.
func newClientSession(s settings, log zerolog.Logger, withLogin bool) (*clientSession, error) {
	cfg, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	if withLogin && cfg.AuthType != ipmi.AuthTypeNone {
		cfg.Password, err = getPassword("IPMI_PASSWORD", "IPMI password: ")
		if err != nil {
			return nil, err
		}
	}

	bridgePw, err := bridgePassword(s)
	if err != nil {
		return nil, err
	}

	cs := &clientSession{
		capturePath: s.Capture,
		lineInfo:    describeLine(s, cfg),
		log:         log,
	}

	opts := []ipmi.Option{
		ipmi.WithDialer(lineDialer(s, bridgePw)),
		ipmi.WithLogger(log),
	}
	if s.Capture != "" {
		cs.capture, err = capture.Create(s.Capture)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ipmi.WithFrameSink(cs.capture))
	}

	cs.client, err = ipmi.NewClient(cfg, opts...)
	if err != nil {
		cs.closeCapture()
		return nil, err
	}
	return cs, nil
}

func newRetryBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsedTime
	return backoff.WithContext(b, ctx)
}

// connect opens the line, retrying with exponential backoff
func (cs *clientSession) connect(ctx context.Context) error {
	return backoff.Retry(func() error {
		err := cs.client.Connect()
		if err == nil {
			return nil
		}

		var argErr *ipmi.ArgumentError
		if errors.Is(err, ipmi.ErrInvalidState) || errors.As(err, &argErr) {
			return backoff.Permanent(err)
		}

		cs.log.Warn().Err(err).Msg("failed to open line, retrying")
		return err
	}, newRetryBackOff(ctx))
}

// login establishes the session, retrying with exponential backoff. A
// failed login leaves the client in the connecting state, which Login
// accepts again.
func (cs *clientSession) login(ctx context.Context) error {
	return backoff.Retry(func() error {
		err := cs.client.Login()
		if err == nil {
			return nil
		}

		// Only a silent or garbled line is worth another attempt; a BMC
		// that rejected the credentials will reject them again
		var loginErr *ipmi.LoginError
		if !errors.As(err, &loginErr) || loginErr.Err != nil || loginErr.Status.Kind != ipmi.StatusTransport {
			return backoff.Permanent(err)
		}

		cs.log.Warn().Err(err).Msg("login failed, retrying")
		return err
	}, newRetryBackOff(ctx))
}

// open connects and logs in
func (cs *clientSession) open(ctx context.Context) error {
	if err := cs.connect(ctx); err != nil {
		return fmt.Errorf("failed to open %s: %w", cs.lineInfo, err)
	}
	if err := cs.login(ctx); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	return nil
}

// Close ends the session, releases the line and finishes the capture file
func (cs *clientSession) Close() {
	if err := cs.client.Close(false); err != nil {
		cs.log.Warn().Err(err).Msg("failed to close line")
	}
	cs.closeCapture()
}

func (cs *clientSession) closeCapture() {
	if cs.capture == nil {
		return
	}
	if err := cs.capture.Close(); err != nil {
		cs.log.Error().Err(err).Str("file", cs.capturePath).Msg("capture file incomplete")
		return
	}
	cs.log.Info().Int("frames", cs.capture.Count()).Str("file", cs.capturePath).Msg("capture written")
}
