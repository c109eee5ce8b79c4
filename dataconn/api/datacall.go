// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"math"
	"net/netip"

	"github.com/nextmn/go-dataconn/apn"
)

// RequestReason qualifies setup and deactivate requests towards the data
// service.
type RequestReason int

const (
	RequestReasonNormal RequestReason = iota
	RequestReasonShutdown
	RequestReasonHandover
)

func (r RequestReason) String() string {
	switch r {
	case RequestReasonNormal:
		return "NORMAL"
	case RequestReasonShutdown:
		return "SHUTDOWN"
	case RequestReasonHandover:
		return "HANDOVER"
	default:
		return "UNKNOWN"
	}
}

// ResultCode is the data service's verdict on a request, distinct from any
// modem cause carried in the response body.
type ResultCode int

const (
	ResultSuccess ResultCode = iota
	ResultErrorUnsupported
	ResultErrorInvalidArg
	ResultErrorBusy
	ResultErrorIllegalState
)

// MaxSuggestedRetryTime in a call response means the modem asks for the APN
// not to be retried at all.
const MaxSuggestedRetryTime = math.MaxInt32

// DataCallResponse is the modem's answer to a setup request.
//
// SuggestedRetryTime follows ril.h: a negative value means no suggestion,
// zero means retry as soon as possible, MaxSuggestedRetryTime means do not
// retry, anything else is a delay in milliseconds.
type DataCallResponse struct {
	Cause              FailCause
	SuggestedRetryTime int32
	Cid                int
	InterfaceName      string
	Addresses          []netip.Prefix
	DNSAddresses       []netip.Addr
	GatewayAddresses   []netip.Addr
	PcscfAddresses     []netip.Addr
	MTU                int
	Protocol           apn.Protocol
}

// KeepaliveStatusCode is the modem-side state of one NAT-T keepalive session.
type KeepaliveStatusCode int

const (
	KeepaliveActive KeepaliveStatusCode = iota
	KeepaliveInactive
	KeepalivePending
)

// KeepaliveStatus pairs a modem keepalive handle with its state.
type KeepaliveStatus struct {
	SessionHandle int
	Code          KeepaliveStatusCode
}

// Socket keepalive event values reported to the upstream agent.
const (
	KeepaliveSuccess             = 0
	KeepaliveErrorInvalidNetwork = -20
	KeepaliveErrorHardware       = -31
	KeepaliveErrorUnknown        = -1
)

// LinkCapacityEstimate carries modem bandwidth estimates in kbps.
// InvalidLinkCapacity marks an absent direction.
type LinkCapacityEstimate struct {
	DownlinkKbps int
	UplinkKbps   int
}

const InvalidLinkCapacity = -1

// Reply envelopes. The caller builds closures that stamp its current tag so
// stale replies can be discarded.
type (
	SetupReply      func(code ResultCode, response *DataCallResponse)
	DeactivateReply func(code ResultCode)
	KeepaliveReply  func(code ResultCode, status *KeepaliveStatus)
)
