// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"github.com/sirupsen/logrus"

	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

func (b *Bearer) enterActive() {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name, "cid": b.cid, "apn": b.profile.Name,
	}).Info("Data call active")

	b.updateNetworkInfoLocked()

	b.serviceState.RegisterCallObserver(b.callObs)
	b.ctrl.addActiveCid(b)

	b.networkInfo.DetailedState = api.DetailedStateConnected
	b.networkInfo.Reason = api.ReasonConnected
	b.networkInfo.ExtraInfo = b.profile.Name
	b.updateTcpBufferSizesLocked(b.rilRat)

	b.unmeteredUseOnly = b.isUnmeteredUseOnlyLocked()
	b.keepaliveHandles = make(map[int]int)

	logrus.WithFields(logrus.Fields{
		"bearer":              b.name,
		"restricted-override": b.restrictedOverride,
		"unmetered-use-only":  b.unmeteredUseOnly,
	}).Debug("Entering Active")

	if b.connectionParams != nil && b.connectionParams.RequestType == api.RequestTypeHandover {
		b.adoptHandoverAgentLocked()
	} else {
		b.createNetworkAgentLocked()
	}

	// Notify every consumer that setup completed; the triggering one
	// resolves through its own completion callback.
	b.notifyAllConnectedLocked()

	if b.transport == dcutil.TransportWWAN {
		b.dataService.RegisterLinkObserver(b.linkObs)
	}
	b.metrics.RecordDataCallConnected(b.transport)
}

// createNetworkAgentLocked builds a fresh upstream agent. Carrier-disallowed
// APN types are folded into the disabled set first so the initial capability
// set already excludes them.
func (b *Bearer) createNetworkAgentLocked() {
	b.score = b.calculateScoreLocked()
	b.disabledApnTypes |= b.ctrl.config().DisallowedApnTypes(b.transport)
	b.agent = b.ctrl.agentFactory(b, b.transport, b.networkInfo,
		b.networkCapabilitiesLocked(), b.linkProps.Clone(), b.score)
}

func (b *Bearer) exitActive() {
	reason := b.networkInfo.Reason
	switch {
	case b.disconnectParams != nil && b.disconnectParams.Reason != "":
		reason = b.disconnectParams.Reason
	case b.failCause != api.FailNone:
		reason = b.failCause.String()
	}

	b.serviceState.UnregisterCallObserver(b.callObs)

	// When the session is being handed over to the other transport the
	// upstream layer must not see a disconnect.
	if b.handoverState != dcutil.HandoverStateBeingTransferred {
		b.networkInfo.DetailedState = api.DetailedStateDisconnected
		b.networkInfo.Reason = reason
	}

	if b.transport == dcutil.TransportWWAN {
		b.dataService.UnregisterLinkObserver(b.linkObs)
	}

	// If this bearer still owns the agent, announce the disconnect and let
	// go. After a completed handover the destination owns the agent and
	// neither call is made.
	if b.agent != nil && b.agent.Owner() == api.Bearer(b) {
		b.agent.SendNetworkInfo(b.networkInfo)
		b.agent.ReleaseOwnership(b)
	}
	b.agent = nil
	b.keepaliveHandles = nil

	b.metrics.RecordDataCallDisconnected(b.transport, reason)
}

func (b *Bearer) handleActive(ev event) bool {
	switch ev.kind {
	case evConnect:
		cp := ev.obj.(*ConnectionParams)
		// Add the consumer, or refresh its generation if already there.
		b.consumers[cp.ApnContext] = cp
		b.disabledApnTypes &^= cp.ApnContext.TypeBitmask()
		if b.agent != nil {
			b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
		}
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "consumers": len(b.consumers),
		}).Debug("Added consumer to active data call")
		b.notifyConnectCompletedLocked(cp, api.FailNone, false)
		return true

	case evDisconnect:
		dp := ev.obj.(*DisconnectParams)
		if _, attached := b.consumers[dp.ApnContext]; !attached {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Warn("DISCONNECT for a consumer not attached to this bearer")
			b.notifyDisconnectCompletedLocked(dp, false)
			return true
		}
		if len(b.consumers) == 1 {
			clear(b.consumers)
			b.disconnectParams = dp
			b.connectionParams = nil
			dp.tag = b.tag
			b.tearDownDataLocked(dp)
			b.transitionTo(disconnectingState)
		} else {
			delete(b.consumers, dp.ApnContext)
			b.disabledApnTypes |= dp.ApnContext.TypeBitmask()
			if b.agent != nil {
				b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
			}
			b.notifyDisconnectCompletedLocked(dp, false)
		}
		return true

	case evDisconnectAll:
		dp := ev.obj.(*DisconnectParams)
		b.disconnectParams = dp
		b.connectionParams = nil
		dp.tag = b.tag
		b.tearDownDataLocked(dp)
		b.transitionTo(disconnectingState)
		return true

	case evLostConnection:
		logrus.WithFields(logrus.Fields{"bearer": b.name, "cid": b.cid}).
			Warn("Lost connection")
		b.armInactiveLocked(nil, nil, api.FailLostConnection)
		b.transitionTo(inactiveState)
		return true

	case evBwRefreshResponse:
		p := ev.obj.(lcePayload)
		if !p.ok {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Debug("Bandwidth refresh failed, ignoring")
			return true
		}
		b.applyLinkCapacityLocked(p.lce)
		return true

	case evLinkCapacityChanged:
		b.applyLinkCapacityLocked(ev.obj.(api.LinkCapacityEstimate))
		return true

	case evVoiceCallStarted, evVoiceCallEnded:
		b.updateNetworkInfoLocked()
		b.updateSuspendStateLocked()
		if b.agent != nil {
			b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
			b.agent.SendNetworkInfo(b.networkInfo)
		}
		return true

	case evKeepaliveStartRequest:
		b.handleKeepaliveStartRequestLocked(ev.obj.(keepaliveStartRequestPayload))
		return true
	case evKeepaliveStopRequest:
		b.handleKeepaliveStopRequestLocked(ev.obj.(keepaliveStopRequestPayload))
		return true
	case evKeepaliveStarted:
		b.handleKeepaliveStartedLocked(ev.obj.(keepaliveStartedPayload))
		return true
	case evKeepaliveStatus:
		b.handleKeepaliveStatusLocked(ev.obj.(api.KeepaliveStatus))
		return true
	case evKeepaliveStopped:
		b.handleKeepaliveStoppedLocked(ev.obj.(keepaliveStoppedPayload))
		return true

	case evReevaluateRestrictedState:
		// Restrictions may only lift, never tighten: NOT_RESTRICTED is
		// immutable once granted, the tracker tears down for the inverse.
		if b.restrictedOverride && !b.shouldRestrictNetworkLocked() {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Debug("Data call becomes not restricted")
			b.restrictedOverride = false
			if b.agent != nil {
				b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
			}
		}
		// Metered capabilities may come back the same one-way.
		if b.unmeteredUseOnly && !b.isUnmeteredUseOnlyLocked() {
			b.unmeteredUseOnly = false
			if b.agent != nil {
				b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
			}
		}
		return true

	case evReevaluateDataConnectionProperties:
		b.updateScoreLocked()
		return true

	case evNrStateChanged:
		b.updateTcpBufferSizesLocked(b.rilRat)
		if b.agent != nil {
			b.agent.SendLinkProperties(b.linkProps)
		}
		return true

	default:
		return false
	}
}

// applyLinkCapacityLocked folds a modem bandwidth estimate into the exposed
// capabilities, but only when the modem is the configured bandwidth source.
func (b *Bearer) applyLinkCapacityLocked(lce api.LinkCapacityEstimate) {
	nc := b.networkCapabilitiesLocked()
	if b.ctrl.config().UseModemBandwidth() {
		if lce.DownlinkKbps != api.InvalidLinkCapacity {
			nc.LinkDownstreamKbps = lce.DownlinkKbps
		}
		if lce.UplinkKbps != api.InvalidLinkCapacity {
			nc.LinkUpstreamKbps = lce.UplinkKbps
		}
	}
	if b.agent != nil {
		b.agent.SendNetworkCapabilities(nc)
	}
}
