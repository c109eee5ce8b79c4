// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"github.com/sirupsen/logrus"

	"github.com/nextmn/go-dataconn/dataconn/api"
)

// state is one node of the hierarchical state machine. Hierarchy is flat by
// construction: every concrete state has the shared default behavior as its
// parent, reached when handle reports the event as not handled.
type state struct {
	name   string
	enter  func(*Bearer)
	exit   func(*Bearer)
	handle func(*Bearer, event) bool
}

var (
	inactiveState                             = &state{}
	activatingState                           = &state{}
	activeState                               = &state{}
	disconnectingState                        = &state{}
	disconnectingErrorCreatingConnectionState = &state{}
)

func init() {
	inactiveState.name = "Inactive"
	inactiveState.enter = (*Bearer).enterInactive
	inactiveState.handle = (*Bearer).handleInactive

	activatingState.name = "Activating"
	activatingState.enter = (*Bearer).enterActivating
	activatingState.handle = (*Bearer).handleActivating

	activeState.name = "Active"
	activeState.enter = (*Bearer).enterActive
	activeState.exit = (*Bearer).exitActive
	activeState.handle = (*Bearer).handleActive

	disconnectingState.name = "Disconnecting"
	disconnectingState.handle = (*Bearer).handleDisconnecting

	disconnectingErrorCreatingConnectionState.name = "DisconnectingErrorCreatingConnection"
	disconnectingErrorCreatingConnectionState.handle = (*Bearer).handleDisconnectingError
}

// process dispatches one event: the current state first, the default parent
// when it does not handle it.
func (b *Bearer) process(ev event) {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name,
		"state":  b.current.name,
		"event":  ev.kind,
	}).Trace("Processing event")
	if b.current.handle != nil && b.current.handle(b, ev) {
		return
	}
	b.handleDefault(ev)
}

// transitionTo switches states and re-presents deferred events, in their
// original order, after the new state's entry actions.
func (b *Bearer) transitionTo(next *state) {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name,
		"from":   b.current.name,
		"to":     next.name,
	}).Debug("State transition")
	if b.current.exit != nil {
		b.current.exit(b)
	}
	b.current = next
	b.metrics.RecordStateChange(b.name, b.transport, next.name)
	if next.enter != nil {
		next.enter(b)
	}
	if len(b.deferred) > 0 {
		pending := b.deferred
		b.deferred = nil
		for _, ev := range pending {
			b.process(ev)
		}
	}
}

// deferEvent parks an event that the current state cannot process yet.
func (b *Bearer) deferEvent(ev event) {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name,
		"state":  b.current.name,
		"event":  ev.kind,
	}).Debug("Deferring event")
	b.deferred = append(b.deferred, ev)
}

// handleDefault is the parent behavior shared by every state.
func (b *Bearer) handleDefault(ev event) {
	switch ev.kind {
	case evReset:
		b.transitionTo(inactiveState)

	case evConnect:
		// A connect nobody else handled cannot succeed.
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Debug("CONNECT in default state, fail not expected")
		b.notifyConnectCompletedLocked(ev.obj.(*ConnectionParams), api.FailUnknown, false)

	case evDisconnect, evDisconnectAll, evReevaluateRestrictedState:
		b.deferEvent(ev)

	case evTearDownNow:
		b.dataService.DeactivateDataCall(b.cid, api.RequestReasonNormal, nil)

	case evLostConnection, evRetryConnection:
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "event": ev.kind, "tag": b.tag,
		}).Debug("Ignoring event, bearer not active")

	case evDrsOrRatChanged:
		p := ev.obj.(drsRatPayload)
		b.dataRegState = p.drs
		b.updateTcpBufferSizesLocked(p.rat)
		b.rilRat = p.rat
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "drs": p.drs, "rat": p.rat,
		}).Debug("Data registration state or RAT changed")
		b.updateNetworkInfoLocked()
		b.updateSuspendStateLocked()
		if b.agent != nil {
			b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
			b.agent.SendNetworkInfo(b.networkInfo)
			b.agent.SendLinkProperties(b.linkProps)
		}

	case evMeterednessChanged:
		unmetered := ev.obj.(bool)
		if unmetered == b.unmeteredOverride {
			return
		}
		b.unmeteredOverride = unmetered
		b.refreshAndPushLocked()

	case evNrFrequencyChanged, evRoamOn, evRoamOff, evOverrideChanged:
		b.refreshAndPushLocked()

	case evKeepaliveStartRequest:
		if b.agent != nil {
			p := ev.obj.(keepaliveStartRequestPayload)
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorInvalidNetwork)
		}
	case evKeepaliveStopRequest:
		if b.agent != nil {
			p := ev.obj.(keepaliveStopRequestPayload)
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorInvalidNetwork)
		}

	default:
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "state": b.current.name, "event": ev.kind,
		}).Trace("Ignoring unhandled event")
	}
}

// refreshAndPushLocked refreshes network info and pushes capabilities and
// info to the agent when present.
func (b *Bearer) refreshAndPushLocked() {
	b.updateNetworkInfoLocked()
	if b.agent != nil {
		b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
		b.agent.SendNetworkInfo(b.networkInfo)
	}
}
