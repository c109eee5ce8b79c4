// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "github.com/nextmn/go-dataconn/dcutil"

// DetailedState is the connection state reported to the upstream agent.
type DetailedState int

const (
	DetailedStateIdle DetailedState = iota
	DetailedStateConnecting
	DetailedStateConnected
	DetailedStateSuspended
	DetailedStateDisconnected
	DetailedStateFailed
)

func (d DetailedState) String() string {
	switch d {
	case DetailedStateIdle:
		return "IDLE"
	case DetailedStateConnecting:
		return "CONNECTING"
	case DetailedStateConnected:
		return "CONNECTED"
	case DetailedStateSuspended:
		return "SUSPENDED"
	case DetailedStateDisconnected:
		return "DISCONNECTED"
	case DetailedStateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// NetworkInfo is the network description pushed through the agent alongside
// capabilities and link properties.
type NetworkInfo struct {
	DetailedState DetailedState
	Reason        string
	ExtraInfo     string // the APN name once connected
	NetworkType   dcutil.RadioTech
	Roaming       bool
	Available     bool
}
