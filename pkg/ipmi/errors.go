// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is wrapped by every StateError
	ErrInvalidState = errors.New("invalid client state")

	// ErrTimeout is returned by the transport when no matching frame
	// arrived before the read gave up
	ErrTimeout = errors.New("response timeout")

	// ErrUnsupportedAuthType is returned when an authentication code cannot
	// be computed for the negotiated type
	ErrUnsupportedAuthType = errors.New("unsupported authentication type")
)

// An ArgumentError suggests that the arguments are wrong
type ArgumentError struct {
	Value   interface{} // Argument that has a problem
	Message string      // Error message
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s, value `%v`", e.Message, e.Value)
}

// A StateError reports an operation attempted from the wrong client state.
// It indicates a caller bug, not a line problem.
type StateError struct {
	Op    string
	State ClientState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// A LengthError reports a response body shorter than its command requires
type LengthError struct {
	Command  string
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: response data too short, expected %d bytes, got %d", e.Command, e.Expected, e.Actual)
}

// A LoginError reports the step at which a login attempt failed
type LoginError struct {
	Step   string
	Status Status
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("login failed at %s: %s", e.Step, e.Status)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// checkLength returns a LengthError when data is shorter than n
func checkLength(command string, data []byte, n int) error {
	if len(data) < n {
		return &LengthError{Command: command, Expected: n, Actual: len(data)}
	}
	return nil
}
