// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dcutil"
)

// ApnContext is one logical APN consumer attached to a bearer. The outer
// tracker owns it; the bearer only reads it and records results on it.
type ApnContext interface {
	// Profile is the APN configuration this context asks for.
	Profile() *apn.Profile
	// TypeBitmask is the requested APN type(s).
	TypeBitmask() apn.Type
	// Requests lists the upstream network requests behind this context.
	Requests() []NetworkRequest
	// HasRestrictedRequests reports whether any request lacks the
	// NOT_RESTRICTED capability, optionally ignoring DUN requests.
	HasRestrictedRequests(excludeDUN bool) bool
	// SetModemSuggestedDelay records the retry delay decoded from a failed
	// setup for the tracker's retry scheduling.
	SetModemSuggestedDelay(delay RetryDelay)
	// SetReason records a best-effort cause string before a broadcast
	// notification.
	SetReason(reason string)
}

// Tracker is the outer per-transport tracker: it decides which bearer to
// bring up and when to retry. The bearer core only consults it and reports
// back through the Notify methods.
type Tracker interface {
	// BearerByType finds the bearer currently serving t on the given
	// transport, nil if none. Used to locate the handover source.
	BearerByType(transport dcutil.Transport, t apn.Type) Bearer

	DataEnabled() bool
	DataRoamingEnabled() bool

	// Broadcast notifications for consumers beyond the triggering one.
	NotifyDataSetupComplete(ctx ApnContext, cid int, requestType RequestType)
	NotifyDataSetupCompleteError(ctx ApnContext, cid int, requestType RequestType)
	NotifyDisconnectDone(ctx ApnContext, cid int, requestType RequestType)
}
