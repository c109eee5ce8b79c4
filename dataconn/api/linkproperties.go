// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"net/netip"
	"slices"
)

// ProxyInfo is the HTTP proxy carried on a bearer's link.
type ProxyInfo struct {
	Host string
	Port int
}

// Route is one route derived from a gateway address in the call response.
type Route struct {
	Gateway netip.Addr
}

// PointToPoint reports whether this route came from a zero gateway, which
// marks a point-to-point interface.
func (r Route) PointToPoint() bool {
	return r.Gateway.IsUnspecified()
}

// LinkProperties describes the link a bearer exposes to the connectivity
// layer: interface, addresses, DNS, routes, MTU and TCP buffer sizing.
type LinkProperties struct {
	InterfaceName   string
	Addresses       []netip.Prefix
	DNSServers      []netip.Addr
	PcscfAddresses  []netip.Addr
	Routes          []Route
	MTU             int // 0 when unset
	TCPBufferSizes  string
	HTTPProxy       *ProxyInfo
}

// Empty reports whether lp carries no link at all.
func (lp LinkProperties) Empty() bool {
	return lp.InterfaceName == "" && len(lp.Addresses) == 0 &&
		len(lp.DNSServers) == 0 && len(lp.Routes) == 0
}

// Equal compares every field, proxy included.
func (lp LinkProperties) Equal(other LinkProperties) bool {
	if lp.InterfaceName != other.InterfaceName ||
		lp.MTU != other.MTU ||
		lp.TCPBufferSizes != other.TCPBufferSizes {
		return false
	}
	if !slices.Equal(lp.Addresses, other.Addresses) ||
		!slices.Equal(lp.DNSServers, other.DNSServers) ||
		!slices.Equal(lp.PcscfAddresses, other.PcscfAddresses) ||
		!slices.Equal(lp.Routes, other.Routes) {
		return false
	}
	switch {
	case lp.HTTPProxy == nil && other.HTTPProxy == nil:
		return true
	case lp.HTTPProxy == nil || other.HTTPProxy == nil:
		return false
	default:
		return *lp.HTTPProxy == *other.HTTPProxy
	}
}

// Clone returns a deep copy.
func (lp LinkProperties) Clone() LinkProperties {
	out := lp
	out.Addresses = slices.Clone(lp.Addresses)
	out.DNSServers = slices.Clone(lp.DNSServers)
	out.PcscfAddresses = slices.Clone(lp.PcscfAddresses)
	out.Routes = slices.Clone(lp.Routes)
	if lp.HTTPProxy != nil {
		proxy := *lp.HTTPProxy
		out.HTTPProxy = &proxy
	}
	return out
}
