// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "strconv"

// FailCause is the failure reported to requesters when a bearer cannot be
// set up or is lost. Values below FailUnknown (1<<16 - 1) are modem-reported
// causes passed through numerically (see TS 24.008 annex); FailUnknown and
// the values above it are local.
type FailCause int

const (
	FailNone FailCause = 0

	// Modem-reported causes this package needs by name. Any other modem
	// cause still propagates as its numeric value.
	FailOperatorBarred               FailCause = 8
	FailMissingUnknownAPN            FailCause = 27
	FailUnknownPDPAddressType        FailCause = 28
	FailUserAuthentication           FailCause = 29
	FailServiceOptionNotSubscribed   FailCause = 33
	FailMultiConnToSamePdnNotAllowed FailCause = 55

	// Locally generated causes, kept out of the modem range.
	FailUnknown                      FailCause = 1<<16 - 1
	FailRadioNotAvailable            FailCause = 1 << 16
	FailUnacceptableNetworkParameter FailCause = 1<<16 + 1
	FailLostConnection               FailCause = 1<<16 + 4
	FailHandoverFailed               FailCause = 1<<16 + 11
)

func (c FailCause) String() string {
	switch c {
	case FailNone:
		return "NONE"
	case FailOperatorBarred:
		return "OPERATOR_BARRED"
	case FailMissingUnknownAPN:
		return "MISSING_UNKNOWN_APN"
	case FailUnknownPDPAddressType:
		return "UNKNOWN_PDP_ADDRESS_TYPE"
	case FailUserAuthentication:
		return "USER_AUTHENTICATION"
	case FailServiceOptionNotSubscribed:
		return "SERVICE_OPTION_NOT_SUBSCRIBED"
	case FailMultiConnToSamePdnNotAllowed:
		return "MULTI_CONN_TO_SAME_PDN_NOT_ALLOWED"
	case FailUnknown:
		return "UNKNOWN"
	case FailRadioNotAvailable:
		return "RADIO_NOT_AVAILABLE"
	case FailUnacceptableNetworkParameter:
		return "UNACCEPTABLE_NETWORK_PARAMETER"
	case FailLostConnection:
		return "LOST_CONNECTION"
	case FailHandoverFailed:
		return "HANDOVER_FAILED"
	default:
		return "CAUSE_" + strconv.Itoa(int(c))
	}
}

// RetryDelay is the modem-suggested retry delay in milliseconds, or one of
// the sentinel values below.
type RetryDelay int64

const (
	// NoSuggestedRetryDelay means the modem made no suggestion and the
	// tracker applies its own retry schedule.
	NoSuggestedRetryDelay RetryDelay = -2
	// NoRetry means the modem asked for the APN not to be retried.
	NoRetry RetryDelay = -3
)
