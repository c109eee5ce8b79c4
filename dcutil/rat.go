// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dcutil

import "strings"

// RadioTech is a radio access technology as reported by the modem.
type RadioTech int

const (
	RadioTechUnknown RadioTech = iota
	RadioTechGPRS
	RadioTechEDGE
	RadioTechUMTS
	RadioTech1xRTT
	RadioTechEvdo0
	RadioTechEvdoA
	RadioTechEvdoB
	RadioTechEHRPD
	RadioTechHSDPA
	RadioTechHSUPA
	RadioTechHSPA
	RadioTechHSPAP
	RadioTechLTE
	RadioTechLTECA
	RadioTechNR
	RadioTechIWLAN
)

// Names used for TCP buffer lookup and carrier-config override matching.
// EVDO revisions collapse to a single name, the modem reports them separately.
const (
	RATNameEvdo = "evdo"
	RATName5G   = "nr"
)

// Names used for the link bandwidth table. NR Non-Standalone uses an LTE
// anchor cell, so it gets dedicated names instead of "LTE".
const (
	RATNameNRNSA       = "NR_NSA"
	RATNameNRNSAMmwave = "NR_NSA_MMWAVE"
)

var ratNames = map[RadioTech]string{
	RadioTechGPRS:  "GPRS",
	RadioTechEDGE:  "EDGE",
	RadioTechUMTS:  "UMTS",
	RadioTech1xRTT: "1xRTT",
	RadioTechEvdo0: "EvDo-rev.0",
	RadioTechEvdoA: "EvDo-rev.A",
	RadioTechEvdoB: "EvDo-rev.B",
	RadioTechEHRPD: "eHRPD",
	RadioTechHSDPA: "HSDPA",
	RadioTechHSUPA: "HSUPA",
	RadioTechHSPA:  "HSPA",
	RadioTechHSPAP: "HSPAP",
	RadioTechLTE:   "LTE",
	RadioTechLTECA: "LTE_CA",
	RadioTechNR:    "NR",
	RadioTechIWLAN: "IWLAN",
}

func (r RadioTech) String() string {
	if name, ok := ratNames[r]; ok {
		return name
	}
	return "Unknown"
}

// BufferName is the lowercase name used to key the TCP buffer table and to
// match carrier-config override entries. EVDO revisions collapse to "evdo".
func (r RadioTech) BufferName() string {
	if r.IsEvdo() {
		return RATNameEvdo
	}
	return strings.ToLower(r.String())
}

func (r RadioTech) IsEvdo() bool {
	return r == RadioTechEvdo0 || r == RadioTechEvdoA || r == RadioTechEvdoB
}

// AccessNetwork is the access network family passed to the data service on
// call setup.
type AccessNetwork int

const (
	AccessNetworkUnknown AccessNetwork = iota
	AccessNetworkGERAN
	AccessNetworkUTRAN
	AccessNetworkEUTRAN
	AccessNetworkCDMA2000
	AccessNetworkNGRAN
	AccessNetworkIWLAN
)

func (a AccessNetwork) String() string {
	switch a {
	case AccessNetworkGERAN:
		return "GERAN"
	case AccessNetworkUTRAN:
		return "UTRAN"
	case AccessNetworkEUTRAN:
		return "EUTRAN"
	case AccessNetworkCDMA2000:
		return "CDMA2000"
	case AccessNetworkNGRAN:
		return "NGRAN"
	case AccessNetworkIWLAN:
		return "IWLAN"
	default:
		return "UNKNOWN"
	}
}

// AccessNetworkFor maps a radio technology to its access network family.
func AccessNetworkFor(r RadioTech) AccessNetwork {
	switch r {
	case RadioTechGPRS, RadioTechEDGE:
		return AccessNetworkGERAN
	case RadioTechUMTS, RadioTechHSDPA, RadioTechHSUPA, RadioTechHSPA, RadioTechHSPAP:
		return AccessNetworkUTRAN
	case RadioTech1xRTT, RadioTechEvdo0, RadioTechEvdoA, RadioTechEvdoB, RadioTechEHRPD:
		return AccessNetworkCDMA2000
	case RadioTechLTE, RadioTechLTECA:
		return AccessNetworkEUTRAN
	case RadioTechNR:
		return AccessNetworkNGRAN
	case RadioTechIWLAN:
		return AccessNetworkIWLAN
	default:
		return AccessNetworkUnknown
	}
}
