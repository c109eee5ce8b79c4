// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import "github.com/nextmn/go-dataconn/dcutil"

// TCP buffer sizes per radio technology. Six comma separated byte values:
// read_min, read_default, read_max, write_min, write_default, write_max.
const (
	tcpBufferSizesGPRS  = "4092,8760,48000,4096,8760,48000"
	tcpBufferSizesEDGE  = "4093,26280,70800,4096,16384,70800"
	tcpBufferSizesUMTS  = "58254,349525,1048576,58254,349525,1048576"
	tcpBufferSizes1xRTT = "16384,32768,131072,4096,16384,102400"
	tcpBufferSizesEVDO  = "4094,87380,262144,4096,16384,262144"
	tcpBufferSizesEHRPD = "131072,262144,1048576,4096,16384,524288"
	tcpBufferSizesHSDPA = "61167,367002,1101005,8738,52429,262114"
	tcpBufferSizesHSPA  = "40778,244668,734003,16777,100663,301990"
	tcpBufferSizesLTE   = "524288,1048576,2097152,262144,524288,1048576"
	tcpBufferSizesHSPAP = "122334,734003,2202010,32040,192239,576717"
	tcpBufferSizesNR    = "2097152,6291456,16777216,512000,2097152,8388608"
	tcpBufferSizesLTECA = "4096,6291456,12582912,4096,1048576,2097152"
)

// defaultTCPBufferSizes returns the built-in sizes for a technology.
// ratName is the already patched lookup name (EVDO collapsed, "nr" when an
// NR Non-Standalone anchor serves this bearer). An empty return lets the
// connectivity layer keep the system default.
func defaultTCPBufferSizes(rat dcutil.RadioTech, ratName string, nrConnected bool) string {
	switch rat {
	case dcutil.RadioTechGPRS:
		return tcpBufferSizesGPRS
	case dcutil.RadioTechEDGE:
		return tcpBufferSizesEDGE
	case dcutil.RadioTechUMTS:
		return tcpBufferSizesUMTS
	case dcutil.RadioTech1xRTT:
		return tcpBufferSizes1xRTT
	case dcutil.RadioTechEvdo0, dcutil.RadioTechEvdoA, dcutil.RadioTechEvdoB:
		return tcpBufferSizesEVDO
	case dcutil.RadioTechEHRPD:
		return tcpBufferSizesEHRPD
	case dcutil.RadioTechHSDPA:
		return tcpBufferSizesHSDPA
	case dcutil.RadioTechHSPA, dcutil.RadioTechHSUPA:
		return tcpBufferSizesHSPA
	case dcutil.RadioTechLTE:
		if ratName == dcutil.RATName5G {
			return tcpBufferSizesNR
		}
		return tcpBufferSizesLTE
	case dcutil.RadioTechLTECA:
		if nrConnected {
			return tcpBufferSizesNR
		}
		return tcpBufferSizesLTECA
	case dcutil.RadioTechHSPAP:
		return tcpBufferSizesHSPAP
	case dcutil.RadioTechNR:
		return tcpBufferSizesNR
	default:
		return ""
	}
}

// updateTcpBufferSizesLocked recomputes the TCP buffer string on the link
// properties for the given technology.
func (b *Bearer) updateTcpBufferSizesLocked(rat dcutil.RadioTech) {
	cfg := b.ctrl.config()

	if rat == dcutil.RadioTechLTE && b.serviceState.UsingCarrierAggregation() {
		rat = dcutil.RadioTechLTECA
	}
	ratName := rat.BufferName()

	// NR Non-Standalone uses an LTE anchor cell: the reported technology
	// stays LTE, but NR buffer sizing applies while this cid rides the NR
	// context.
	nrConnected := b.serviceState.NRState() == dcutil.NRStateConnected
	if b.transport == dcutil.TransportWWAN &&
		(rat == dcutil.RadioTechLTE || rat == dcutil.RadioTechLTECA) &&
		nrConnected && b.serviceState.HasNRContext(b.cid) {
		ratName = dcutil.RATName5G
	}

	sizes := cfg.TCPBufferOverride(ratName)
	if sizes == "" {
		sizes = defaultTCPBufferSizes(rat, ratName, nrConnected)
	}
	b.linkProps.TCPBufferSizes = sizes
}
