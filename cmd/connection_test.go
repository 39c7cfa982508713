// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEchoBridge starts a bridge that requires Basic auth and echoes every
// binary message back in two halves, after a text message the line must
// ignore
func newEchoBridge(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bridge" || pass != "hunter2" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			half := len(data) / 2
			conn.WriteMessage(websocket.TextMessage, []byte("status"))
			conn.WriteMessage(websocket.BinaryMessage, data[:half])
			conn.WriteMessage(websocket.BinaryMessage, data[half:])
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestBridgeLine_RoundTrip(t *testing.T) {
	url := newEchoBridge(t)

	line, err := openBridge(url, "bridge", "hunter2", false, time.Second)
	require.NoError(t, err)
	defer line.Close()

	sent := []byte{0xA0, 0x81, 0x1C, 0x63, 0x20, 0x04, 0x01, 0x00, 0xA5}
	n, err := line.Write(sent)
	require.NoError(t, err)
	assert.Equal(t, len(sent), n)

	// Read one byte at a time, as the transport does
	got := make([]byte, 0, len(sent))
	b := make([]byte, 1)
	for len(got) < len(sent) {
		n, err := line.Read(b)
		require.NoError(t, err)
		require.Equal(t, 1, n, "read timed out after %d bytes", len(got))
		got = append(got, b[0])
	}
	assert.Equal(t, sent, got)
}

func TestBridgeLine_ReadTimeout(t *testing.T) {
	url := newEchoBridge(t)

	line, err := openBridge(url, "bridge", "hunter2", false, 50*time.Millisecond)
	require.NoError(t, err)
	defer line.Close()

	start := time.Now()
	n, err := line.Read(make([]byte, 1))
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBridgeLine_Closed(t *testing.T) {
	url := newEchoBridge(t)

	line, err := openBridge(url, "bridge", "hunter2", false, time.Second)
	require.NoError(t, err)
	require.NoError(t, line.Close())

	_, err = line.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, ErrConnectionClosed), "got %v", err)
	assert.NoError(t, line.Close())
}

func TestOpenBridge_Errors(t *testing.T) {
	url := newEchoBridge(t)

	_, err := openBridge(url, "bridge", "wrong", false, time.Second)
	assert.ErrorContains(t, err, "HTTP 401")

	_, err = openBridge("http://example.invalid/", "", "", false, time.Second)
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestLineDialer(t *testing.T) {
	s := defaultSettings()
	cfg, err := s.clientConfig()
	require.NoError(t, err)

	// No URL: the serial opener, which refuses an empty port name
	_, err = lineDialer(s, "")(&cfg)
	assert.Error(t, err)

	s.URL = newEchoBridge(t)
	s.Username = "bridge"
	port, err := lineDialer(s, "hunter2")(&cfg)
	require.NoError(t, err)
	assert.NoError(t, port.Close())
}
