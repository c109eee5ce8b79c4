// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dcutil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportOpposite(t *testing.T) {
	assert.Equal(t, TransportWLAN, TransportWWAN.Opposite())
	assert.Equal(t, TransportWWAN, TransportWLAN.Opposite())
}

func TestBufferNames(t *testing.T) {
	assert.Equal(t, "lte", RadioTechLTE.BufferName())
	assert.Equal(t, "lte_ca", RadioTechLTECA.BufferName())
	assert.Equal(t, "hspap", RadioTechHSPAP.BufferName())
	// Every EVDO revision collapses to one name.
	assert.Equal(t, "evdo", RadioTechEvdo0.BufferName())
	assert.Equal(t, "evdo", RadioTechEvdoA.BufferName())
	assert.Equal(t, "evdo", RadioTechEvdoB.BufferName())
}

func TestAccessNetworkFor(t *testing.T) {
	cases := []struct {
		rat  RadioTech
		want AccessNetwork
	}{
		{RadioTechGPRS, AccessNetworkGERAN},
		{RadioTechEDGE, AccessNetworkGERAN},
		{RadioTechUMTS, AccessNetworkUTRAN},
		{RadioTechHSPAP, AccessNetworkUTRAN},
		{RadioTechEvdoA, AccessNetworkCDMA2000},
		{RadioTechEHRPD, AccessNetworkCDMA2000},
		{RadioTechLTE, AccessNetworkEUTRAN},
		{RadioTechLTECA, AccessNetworkEUTRAN},
		{RadioTechNR, AccessNetworkNGRAN},
		{RadioTechIWLAN, AccessNetworkIWLAN},
		{RadioTechUnknown, AccessNetworkUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AccessNetworkFor(tc.rat), "rat %s", tc.rat)
	}
}

func TestHandoverStateWireValues(t *testing.T) {
	// Observers serialize these, the values are part of the contract.
	assert.Equal(t, 1, int(HandoverStateIdle))
	assert.Equal(t, 2, int(HandoverStateBeingTransferred))
	assert.Equal(t, 3, int(HandoverStateCompleted))
}

func TestIsUsableAddress(t *testing.T) {
	usable := []string{"10.0.0.2", "203.0.113.9", "2001:db8::5"}
	for _, s := range usable {
		assert.True(t, IsUsableAddress(netip.MustParseAddr(s)), s)
	}
	unusable := []string{"0.0.0.0", "::", "127.0.0.1", "::1", "169.254.0.7", "fe80::1", "224.0.0.1", "ff02::2"}
	for _, s := range unusable {
		assert.False(t, IsUsableAddress(netip.MustParseAddr(s)), s)
	}
	assert.False(t, IsUsableAddress(netip.Addr{}))
}

func TestIsIPLiteral(t *testing.T) {
	assert.True(t, IsIPLiteral("192.0.2.1"))
	assert.True(t, IsIPLiteral("2001:db8::1"))
	assert.False(t, IsIPLiteral("proxy.example"))
	assert.False(t, IsIPLiteral(""))
}
