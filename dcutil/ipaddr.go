// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dcutil

import "net/netip"

// NullIPv4 is the placeholder some modems report instead of a real DNS server.
const NullIPv4 = "0.0.0.0"

// IsUsableAddress reports whether addr can serve as a host address on a
// bearer: not the any-local address, not link-local, loopback or multicast.
func IsUsableAddress(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	return !addr.IsUnspecified() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsLoopback() &&
		!addr.IsMulticast()
}

// IsIPLiteral reports whether s parses as a literal IPv4 or IPv6 address.
func IsIPLiteral(s string) bool {
	if s == "" {
		return false
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
