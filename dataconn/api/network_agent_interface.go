// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "github.com/nextmn/go-dataconn/dcutil"

// NetworkAgent is the surface the upstream connectivity layer sees for one
// network. Exactly one bearer owns an agent at a time; during a handover
// window the destination additionally holds a non-owning reference.
type NetworkAgent interface {
	SendLinkProperties(lp LinkProperties)
	SendNetworkCapabilities(nc NetworkCapabilities)
	SendNetworkInfo(ni NetworkInfo)
	SendNetworkScore(score int)
	OnSocketKeepaliveEvent(slot int, status int)

	// AcquireOwnership transfers the agent to owner. The previous owner
	// loses it. Must be called from dispatcher context so the transfer is
	// atomic with respect to bearer events.
	AcquireOwnership(owner Bearer, transport dcutil.Transport)
	// ReleaseOwnership detaches owner from the agent; a no-op when owner
	// does not own it (it was transferred away during handover).
	ReleaseOwnership(owner Bearer)
	// Owner returns the bearer currently owning this agent, nil if none.
	Owner() Bearer
}

// NetworkAgentFactory creates a fresh agent when a bearer reaches Active
// without inheriting one from a handover source.
type NetworkAgentFactory func(owner Bearer, transport dcutil.Transport,
	info NetworkInfo, caps NetworkCapabilities, lp LinkProperties, score int) NetworkAgent
