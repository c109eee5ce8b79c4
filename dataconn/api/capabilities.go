// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "strings"

// Capability is one entry of the capability set a bearer exposes upstream.
type Capability uint

const (
	CapInternet Capability = iota
	CapMMS
	CapSUPL
	CapDUN
	CapFOTA
	CapIMS
	CapCBS
	CapIA
	CapEIMS
	CapMCX
	CapNotMetered
	CapNotRestricted
	CapNotRoaming
	CapNotCongested
	capCount
)

var capNames = [capCount]string{
	"INTERNET", "MMS", "SUPL", "DUN", "FOTA", "IMS", "CBS", "IA",
	"EIMS", "MCX", "NOT_METERED", "NOT_RESTRICTED", "NOT_ROAMING",
	"NOT_CONGESTED",
}

func (c Capability) String() string {
	if c < capCount {
		return capNames[c]
	}
	return "UNKNOWN"
}

// NetworkCapabilities is the capability set plus bandwidths and the network
// specifier carrying the subscription id. The transport is always cellular.
type NetworkCapabilities struct {
	caps uint32

	LinkDownstreamKbps int
	LinkUpstreamKbps   int
	NetworkSpecifier   string
}

func (nc *NetworkCapabilities) Add(c Capability) {
	nc.caps |= 1 << c
}

func (nc *NetworkCapabilities) Remove(c Capability) {
	nc.caps &^= 1 << c
}

// Set adds or removes c depending on present.
func (nc *NetworkCapabilities) Set(c Capability, present bool) {
	if present {
		nc.Add(c)
	} else {
		nc.Remove(c)
	}
}

func (nc NetworkCapabilities) Has(c Capability) bool {
	return nc.caps&(1<<c) != 0
}

// Capabilities returns the set members in declaration order.
func (nc NetworkCapabilities) Capabilities() []Capability {
	out := make([]Capability, 0, capCount)
	for c := Capability(0); c < capCount; c++ {
		if nc.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (nc NetworkCapabilities) Equal(other NetworkCapabilities) bool {
	return nc == other
}

func (nc NetworkCapabilities) String() string {
	parts := make([]string, 0, capCount)
	for _, c := range nc.Capabilities() {
		parts = append(parts, c.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
