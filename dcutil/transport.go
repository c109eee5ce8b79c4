// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dcutil

// Transport is the radio transport a bearer is bound to.
type Transport int

const (
	TransportWWAN Transport = iota // cellular
	TransportWLAN                  // cellular over Wi-Fi (IWLAN)
)

func (t Transport) String() string {
	switch t {
	case TransportWWAN:
		return "WWAN"
	case TransportWLAN:
		return "WLAN"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the handover source transport for a bearer on t.
// Handover from WWAN goes to WLAN and vice versa.
func (t Transport) Opposite() Transport {
	if t == TransportWWAN {
		return TransportWLAN
	}
	return TransportWWAN
}
