// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"net/netip"

	"github.com/nextmn/go-dataconn/dcutil"
)

// Bearer is the read side of a data connection plus the handover
// coordination points another bearer needs from its source.
type Bearer interface {
	Name() string
	Transport() dcutil.Transport
	Cid() int

	IsInactive() bool
	IsActivating() bool
	IsActive() bool
	IsDisconnecting() bool

	LinkProperties() LinkProperties
	NetworkCapabilities() NetworkCapabilities
	PcscfAddresses() []netip.Addr
	ApnContexts() []ApnContext

	NetworkAgent() NetworkAgent
	HandoverState() dcutil.HandoverState
	SetHandoverState(state dcutil.HandoverState)
	HasBeenTransferred() bool
	IsBeingInTransferring() bool
}
