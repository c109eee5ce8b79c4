// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"time"

	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// eventKind drives the bearer state machine. Every external stimulus becomes
// one of these, processed in FIFO order by the shared dispatcher.
type eventKind int

const (
	evConnect eventKind = iota
	evSetupDataConnectionDone
	evDeactivateDone
	evDisconnect
	evDisconnectAll
	evTearDownNow
	evLostConnection
	evDrsOrRatChanged
	evRoamOn
	evRoamOff
	evBwRefreshResponse
	evVoiceCallStarted
	evVoiceCallEnded
	evOverrideChanged
	evKeepaliveStatus
	evKeepaliveStarted
	evKeepaliveStopped
	evKeepaliveStartRequest
	evKeepaliveStopRequest
	evLinkCapacityChanged
	evReset
	evReevaluateRestrictedState
	evReevaluateDataConnectionProperties
	evNrStateChanged
	evMeterednessChanged
	evNrFrequencyChanged
	evRetryConnection
)

var eventNames = map[eventKind]string{
	evConnect:                            "CONNECT",
	evSetupDataConnectionDone:            "SETUP_DATA_CONNECTION_DONE",
	evDeactivateDone:                     "DEACTIVATE_DONE",
	evDisconnect:                         "DISCONNECT",
	evDisconnectAll:                      "DISCONNECT_ALL",
	evTearDownNow:                        "TEAR_DOWN_NOW",
	evLostConnection:                     "LOST_CONNECTION",
	evDrsOrRatChanged:                    "DRS_OR_RAT_CHANGED",
	evRoamOn:                             "ROAM_ON",
	evRoamOff:                            "ROAM_OFF",
	evBwRefreshResponse:                  "BW_REFRESH_RESPONSE",
	evVoiceCallStarted:                   "VOICE_CALL_STARTED",
	evVoiceCallEnded:                     "VOICE_CALL_ENDED",
	evOverrideChanged:                    "OVERRIDE_CHANGED",
	evKeepaliveStatus:                    "KEEPALIVE_STATUS",
	evKeepaliveStarted:                   "KEEPALIVE_STARTED",
	evKeepaliveStopped:                   "KEEPALIVE_STOPPED",
	evKeepaliveStartRequest:              "KEEPALIVE_START_REQUEST",
	evKeepaliveStopRequest:               "KEEPALIVE_STOP_REQUEST",
	evLinkCapacityChanged:                "LINK_CAPACITY_CHANGED",
	evReset:                              "RESET",
	evReevaluateRestrictedState:          "REEVALUATE_RESTRICTED_STATE",
	evReevaluateDataConnectionProperties: "REEVALUATE_DATA_CONNECTION_PROPERTIES",
	evNrStateChanged:                     "NR_STATE_CHANGED",
	evMeterednessChanged:                 "METEREDNESS_CHANGED",
	evNrFrequencyChanged:                 "NR_FREQUENCY_CHANGED",
	evRetryConnection:                    "RETRY_CONNECTION",
}

func (k eventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// event is one message to a bearer. The payload type depends on the kind.
type event struct {
	kind eventKind
	obj  any
}

// Event payloads.

type setupDonePayload struct {
	code     api.ResultCode
	response *api.DataCallResponse
	cp       *ConnectionParams
}

// deactivateDonePayload carries back whatever triggered the teardown: the
// DisconnectParams on a normal teardown, the ConnectionParams when tearing
// down after a failed link-properties build. The stamped tag on those params
// is compared against the bearer tag to detect staleness.
type deactivateDonePayload struct {
	code   api.ResultCode
	params any
}

type drsRatPayload struct {
	drs dcutil.DataRegState
	rat dcutil.RadioTech
}

type lcePayload struct {
	lce api.LinkCapacityEstimate
	ok  bool
}

type keepaliveStartRequestPayload struct {
	slot     int
	packet   []byte
	interval time.Duration
}

type keepaliveStopRequestPayload struct {
	slot int
}

type keepaliveStartedPayload struct {
	slot   int
	code   api.ResultCode
	status *api.KeepaliveStatus
}

type keepaliveStoppedPayload struct {
	slot   int
	handle int
	code   api.ResultCode
}
