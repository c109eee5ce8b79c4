// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

// RequestType distinguishes a normal bring-up from a handover bring-up.
type RequestType int

const (
	RequestTypeNormal RequestType = iota
	RequestTypeHandover
)

func (r RequestType) String() string {
	if r == RequestTypeHandover {
		return "HANDOVER"
	}
	return "NORMAL"
}

// ReleaseType qualifies a teardown request.
type ReleaseType int

const (
	ReleaseTypeDetach ReleaseType = iota
	ReleaseTypeNormal
	ReleaseTypeHandover
)

func (r ReleaseType) String() string {
	switch r {
	case ReleaseTypeDetach:
		return "DETACH"
	case ReleaseTypeHandover:
		return "HANDOVER"
	default:
		return "NORMAL"
	}
}

// Reasons with dedicated behavior. ReasonRadioTurnedOff and ReasonPDPReset
// map a teardown to a SHUTDOWN deactivation instead of a NORMAL one;
// ReasonConnected is the reason reported when a call becomes active.
const (
	ReasonRadioTurnedOff = "radioTurnedOff"
	ReasonPDPReset       = "pdpReset"
	ReasonConnected      = "connected"
)

// NetworkRequest is the view of one upstream network request attached to an
// apn context. Only the parts the bearer scores on are represented.
type NetworkRequest struct {
	Capabilities []Capability
	Specifier    string
}

// HasCapability reports whether the request asks for c.
func (r NetworkRequest) HasCapability(c Capability) bool {
	for _, rc := range r.Capabilities {
		if rc == c {
			return true
		}
	}
	return false
}

// ConnectCompletion resolves one bring-up request. cid is the modem context
// id when cause is FailNone.
type ConnectCompletion func(cause FailCause, cid int, requestType RequestType)

// DisconnectCompletion resolves one teardown request.
type DisconnectCompletion func()
