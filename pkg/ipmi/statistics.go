// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"fmt"
	"time"
)

// Statistics tracks exchange outcomes and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Requests          uint64
	Responses         uint64
	Timeouts          uint64
	ChecksumErrors    uint64
	MalformedFrames   uint64
	UnknownResponders uint64
	InvalidData       uint64
	ProtocolErrors    uint64
	DiscardedFrames   uint64
	LoginRetries      uint64

	// Rates (calculated)
	RequestRate float64 // requests/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts the outcome of one exchange
func (s *Statistics) Update(status Status) {
	switch status.Kind {
	case StatusSuccess:
		s.Responses++
	case StatusProtocol:
		s.Responses++
		s.ProtocolErrors++
	case StatusTransport:
		switch status.Fault {
		case FaultTimeout:
			s.Timeouts++
		case FaultChecksum:
			s.ChecksumErrors++
		case FaultMalformed:
			s.MalformedFrames++
		case FaultUnknownResponder:
			s.UnknownResponders++
		case FaultInvalidData:
			s.Responses++
			s.InvalidData++
		}
	}

	s.LastUpdateTime = time.Now()
}

// Errors returns the number of exchanges that did not succeed
func (s *Statistics) Errors() uint64 {
	return s.Timeouts + s.ChecksumErrors + s.MalformedFrames + s.UnknownResponders + s.InvalidData + s.ProtocolErrors
}

// CalculateRates calculates request and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.RequestRate = float64(s.Requests) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var okPercent, errorPercent float64
	if s.Requests > 0 {
		okPercent = float64(s.Requests-min(s.Errors(), s.Requests)) * 100.0 / float64(s.Requests)
		errorPercent = float64(s.Errors()) * 100.0 / float64(s.Requests)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Requests:        %8d\n", s.Requests)
	result += fmt.Sprintf("Responses:       %8d (%.1f%% ok)\n", s.Responses, okPercent)

	if s.Errors() > 0 {
		result += fmt.Sprintf("Errors:          %8d (%.1f%%)\n", s.Errors(), errorPercent)
		if s.Timeouts > 0 {
			result += fmt.Sprintf("  Timeouts:         %5d\n", s.Timeouts)
		}
		if s.ChecksumErrors > 0 {
			result += fmt.Sprintf("  Checksum:         %5d\n", s.ChecksumErrors)
		}
		if s.MalformedFrames > 0 {
			result += fmt.Sprintf("  Malformed:        %5d\n", s.MalformedFrames)
		}
		if s.UnknownResponders > 0 {
			result += fmt.Sprintf("  Unknown Addr:     %5d\n", s.UnknownResponders)
		}
		if s.InvalidData > 0 {
			result += fmt.Sprintf("  Invalid Data:     %5d\n", s.InvalidData)
		}
		if s.ProtocolErrors > 0 {
			result += fmt.Sprintf("  BMC Codes:        %5d\n", s.ProtocolErrors)
		}
	}
	if s.DiscardedFrames > 0 {
		result += fmt.Sprintf("Discarded Frames:%8d\n", s.DiscardedFrames)
	}
	if s.LoginRetries > 0 {
		result += fmt.Sprintf("Login Retries:   %8d\n", s.LoginRetries)
	}

	result += fmt.Sprintf("Request Rate:    %8.1f req/sec\n", s.RequestRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
