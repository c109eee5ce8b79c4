// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"time"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dcutil"
)

// DataService is the lower radio driver executing call setup and teardown.
// All calls are asynchronous: the reply closure is invoked later, possibly
// from another goroutine, and must only post work.
type DataService interface {
	// Transport is the radio transport this service instance is bound to.
	Transport() dcutil.Transport

	// SetupDataCall asks the modem to activate a packet data call.
	// handoverLP carries the source bearer's link properties when reason
	// is RequestReasonHandover, nil otherwise.
	SetupDataCall(accessNetwork dcutil.AccessNetwork, profile apn.DataProfile,
		modemRoaming, allowRoaming bool, reason RequestReason,
		handoverLP *LinkProperties, reply SetupReply)

	// DeactivateDataCall tears the call down. reply may be nil when no
	// answer is expected.
	DeactivateDataCall(cid int, reason RequestReason, reply DeactivateReply)

	// NAT-T keepalive offload, WWAN only.
	StartNattKeepalive(cid int, packet []byte, interval time.Duration, reply KeepaliveReply)
	StopNattKeepalive(handle int, reply KeepaliveReply)

	// RegisterLinkObserver subscribes to unsolicited keepalive status and
	// link capacity reports.
	RegisterLinkObserver(LinkObserver)
	UnregisterLinkObserver(LinkObserver)
}

// LinkObserver receives unsolicited reports from the data service.
type LinkObserver interface {
	OnNattKeepaliveStatus(status KeepaliveStatus)
	OnLinkCapacityChanged(lce LinkCapacityEstimate)
}
