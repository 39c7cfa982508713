// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

// Request is an IPMI command that can serialize its own body
type Request interface {
	NetFn() NetFn
	Command() uint8
	MarshalData() ([]byte, error)
}

// Response is an IPMI response that can parse its own body. Every response
// carries a Status; callers must check it before trusting the fields.
type Response interface {
	Status() Status
	SetStatus(Status)
	UnmarshalData(data []byte) error
}

// ResponseFactory creates an empty response of the shape the caller expects
type ResponseFactory func() Response

// ResponseHeader implements the status half of Response. Embed it in every
// response type.
type ResponseHeader struct {
	status Status
}

// Status returns the outcome of the exchange that produced the response
func (h *ResponseHeader) Status() Status {
	return h.status
}

// SetStatus records the outcome of the exchange
func (h *ResponseHeader) SetStatus(s Status) {
	h.status = s
}
