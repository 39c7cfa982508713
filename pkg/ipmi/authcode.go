// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ipmi

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// AuthCode derives the 16-byte code sent with Activate Session.
//
//	none:     all zeros
//	password: the password, zero padded
//	md5:      MD5(password | session id | challenge | password)
//
// The password is zero padded (or truncated) to 16 bytes in every case.
func AuthCode(t AuthType, sessionID uint32, challenge [challengeSize]byte, password string) ([authCodeSize]byte, error) {
	var code [authCodeSize]byte

	var pw [authCodeSize]byte
	copy(pw[:], password)

	switch t {
	case AuthTypeNone:
		return code, nil

	case AuthTypeStraight:
		return pw, nil

	case AuthTypeMD5:
		var id [4]byte
		binary.LittleEndian.PutUint32(id[:], sessionID)

		h := md5.New()
		h.Write(pw[:])
		h.Write(id[:])
		h.Write(challenge[:])
		h.Write(pw[:])
		copy(code[:], h.Sum(nil))
		return code, nil
	}

	return code, fmt.Errorf("%w: %s", ErrUnsupportedAuthType, t)
}

// negotiableAuthTypes lists the types this client can compute, strongest first
var negotiableAuthTypes = []AuthType{AuthTypeMD5, AuthTypeStraight, AuthTypeNone}

// NegotiateAuthType picks the strongest type both sides support. Without a
// capability probe result, or when nothing overlaps, the preferred type is
// used as is.
func NegotiateAuthType(caps *GetChannelAuthCapabilitiesResponse, preferred AuthType) AuthType {
	if caps == nil {
		return preferred
	}
	for _, t := range negotiableAuthTypes {
		if caps.Supports(t) {
			return t
		}
	}
	return preferred
}
