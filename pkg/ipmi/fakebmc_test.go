// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"encoding/binary"
	"sync"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
)

const (
	testTemporaryID = 0x11223344
	testSessionID   = 0xCAFEF00D
	testPassword    = "secret"
)

var testChallenge = [challengeSize]byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0A, 0xA0, 0xA5, 0xAA, 0x1B, 0xA6, 0x10,
}

// fakeBMC is an in-memory line with a scripted BMC on the far end. A Read
// with nothing queued behaves like a serial read timeout.
type fakeBMC struct {
	mu       sync.Mutex
	rx       []byte
	requests []*basicmode.Message
	closed   bool

	// override, when it returns true, replaces the default answer
	override func(req *basicmode.Message) ([][]byte, bool)

	// onRequest observes every request before it is answered
	onRequest func(req *basicmode.Message)

	authCaps  uint8
	auxData   uint8
	sessionID uint32
}

func newFakeBMC() *fakeBMC {
	return &fakeBMC{
		authCaps: AuthTypeNone.supportBit() | AuthTypeMD5.supportBit() | AuthTypeStraight.supportBit(),
		auxData:  0x04,
	}
}

// dialer returns a Dialer handing out this fake line
func (f *fakeBMC) dialer() Dialer {
	return func(cfg *Config) (Port, error) {
		return f, nil
	}
}

func (f *fakeBMC) Write(p []byte) (int, error) {
	s := basicmode.NewScanner()
	var req *basicmode.Message
	for _, b := range p {
		raw, _ := s.ScanByte(b)
		if raw != nil {
			req, _ = basicmode.ParseFrame(basicmode.Unwrap(raw))
		}
	}

	f.mu.Lock()
	override := f.override
	onRequest := f.onRequest
	if req != nil {
		f.requests = append(f.requests, req)
	}
	f.mu.Unlock()

	if req == nil {
		return len(p), nil
	}
	if onRequest != nil {
		onRequest(req)
	}

	var frames [][]byte
	handled := false
	if override != nil {
		frames, handled = override(req)
	}
	if !handled {
		frames = f.answer(req)
	}

	f.mu.Lock()
	for _, frame := range frames {
		f.rx = append(f.rx, frame...)
	}
	f.mu.Unlock()
	return len(p), nil
}

func (f *fakeBMC) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rx) == 0 || len(p) == 0 {
		return 0, nil
	}
	p[0] = f.rx[0]
	f.rx = f.rx[1:]
	return 1, nil
}

func (f *fakeBMC) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// count returns how many requests carried the given command
func (f *fakeBMC) count(cmd uint8) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Command == cmd {
			n++
		}
	}
	return n
}

// commands returns the command codes received so far, in order
func (f *fakeBMC) commands() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds := make([]uint8, 0, len(f.requests))
	for _, r := range f.requests {
		cmds = append(cmds, r.Command)
	}
	return cmds
}

func (f *fakeBMC) setOverride(fn func(req *basicmode.Message) ([][]byte, bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override = fn
}

// answer plays a well-behaved BMC
func (f *fakeBMC) answer(req *basicmode.Message) [][]byte {
	switch req.Command {
	case CmdGetChannelAuthCapabilities:
		return [][]byte{respond(req, CompletionOK, 0x01, f.authCaps, 0x04, 0x00, 0x57, 0x01, 0x00, f.auxData)}

	case CmdGetSessionChallenge:
		data := make([]byte, 4, 4+challengeSize)
		binary.LittleEndian.PutUint32(data, testTemporaryID)
		data = append(data, testChallenge[:]...)
		return [][]byte{respond(req, CompletionOK, data...)}

	case CmdActivateSession:
		if len(req.Data) < 22 {
			return [][]byte{respond(req, CompletionRequestDataInvalidLength)}
		}
		authType := AuthType(req.Data[0])
		expected, err := AuthCode(authType, testTemporaryID, testChallenge, testPassword)
		if err != nil || string(expected[:]) != string(req.Data[2:18]) {
			return [][]byte{respond(req, 0x86)}
		}
		f.mu.Lock()
		f.sessionID = testSessionID
		f.mu.Unlock()
		data := make([]byte, 10)
		data[0] = byte(authType)
		binary.LittleEndian.PutUint32(data[1:5], testSessionID)
		binary.LittleEndian.PutUint32(data[5:9], 1)
		data[9] = byte(PrivilegeAdministrator)
		return [][]byte{respond(req, CompletionOK, data...)}

	case CmdSetSessionPrivilegeLevel:
		return [][]byte{respond(req, CompletionOK, req.Data...)}

	case CmdCloseSession:
		f.mu.Lock()
		f.sessionID = 0
		f.mu.Unlock()
		return [][]byte{respond(req, CompletionOK)}

	case CmdGetDeviceID:
		return [][]byte{respond(req, CompletionOK, deviceIDBody...)}
	}
	return [][]byte{respond(req, CompletionInvalidCommand)}
}

var deviceIDBody = []byte{0x20, 0x81, 0x02, 0x15, 0x51, 0xBF, 0x57, 0x01, 0x00, 0x34, 0x12}

// respond builds the raw frame a BMC would send back for req
func respond(req *basicmode.Message, code CompletionCode, data ...byte) []byte {
	msg := basicmode.Message{
		TargetAddr: req.SourceAddr,
		NetFn:      req.NetFn | 1,
		TargetLUN:  req.SourceLUN,
		SourceAddr: req.TargetAddr,
		Sequence:   req.Sequence,
		SourceLUN:  req.TargetLUN,
		Command:    req.Command,
		Data:       append([]byte{byte(code)}, data...),
	}
	return msg.Frame()
}
