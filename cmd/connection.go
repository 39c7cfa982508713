// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// bridgeLine is a serial line tunnelled through a WebSocket bridge. Each
// binary message carries raw line bytes. A Read that sees nothing within
// the read timeout returns (0, nil), like a serial port would.
type bridgeLine struct {
	conn    *websocket.Conn
	timeout time.Duration

	messages chan []byte
	done     chan struct{}
	once     sync.Once
	err      error // Set by pump before messages is closed
	buf      []byte
}

func newBridgeLine(conn *websocket.Conn, timeout time.Duration) *bridgeLine {
	b := &bridgeLine{
		conn:     conn,
		timeout:  timeout,
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	go b.pump()
	return b
}

func (b *bridgeLine) pump() {
	defer close(b.messages)
	for {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			b.err = err
			return
		}

		// Only binary messages carry line data
		if messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case b.messages <- data:
		case <-b.done:
			b.err = ErrConnectionClosed
			return
		}
	}
}

func (b *bridgeLine) Read(p []byte) (int, error) {
	if len(b.buf) == 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()

		select {
		case data, ok := <-b.messages:
			if !ok {
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, b.err)
			}
			b.buf = data
		case <-timer.C:
			return 0, nil
		}
	}

	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

func (b *bridgeLine) Write(p []byte) (int, error) {
	if err := b.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *bridgeLine) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.conn.Close()
	})
	return err
}

// openBridge opens a WebSocket serial bridge with optional HTTP Basic auth
func openBridge(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (*bridgeLine, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newBridgeLine(conn, timeout), nil
}

// getPassword reads a password from envVar, or prompts for it without echo
func getPassword(envVar, prompt string) (string, error) {
	if pw := os.Getenv(envVar); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// lineDialer opens the bridge when a URL is configured, otherwise the serial port
func lineDialer(s settings, bridgePassword string) ipmi.Dialer {
	if s.URL == "" {
		return ipmi.OpenSerial
	}
	return func(cfg *ipmi.Config) (ipmi.Port, error) {
		return openBridge(s.URL, s.Username, bridgePassword, s.NoSSLVerify, cfg.ReadTimeout)
	}
}

// bridgePassword prompts for the bridge password when a bridge user is set
func bridgePassword(s settings) (string, error) {
	if s.URL == "" || s.Username == "" {
		return "", nil
	}
	return getPassword("BRIDGE_PASSWORD", "Bridge password: ")
}

// describeLine returns a one-line description of the configured line
func describeLine(s settings, cfg ipmi.Config) string {
	if s.URL != "" {
		return fmt.Sprintf("WebSocket: %s", s.URL)
	}
	return fmt.Sprintf("Serial: %s @ %d baud %d%s%s", cfg.Port, cfg.BaudRate, cfg.DataBits, parityLetter(cfg.Parity), s.StopBits)
}

// openLine opens the configured line without a client, for passive use
func openLine(s settings) (ipmi.Port, ipmi.Config, error) {
	cfg, err := s.clientConfig()
	if err != nil {
		return nil, cfg, err
	}
	pw, err := bridgePassword(s)
	if err != nil {
		return nil, cfg, err
	}
	port, err := lineDialer(s, pw)(&cfg)
	return port, cfg, err
}
