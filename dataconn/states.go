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

// Inactive: the initial and final state. Entry fires the notifications armed
// by whoever transitioned here, settles any handover leftovers and clears
// the record.

func (b *Bearer) enterInactive() {
	b.tag++
	logrus.WithFields(logrus.Fields{"bearer": b.name, "tag": b.tag}).Debug("Entering Inactive")

	if b.handoverState == dcutil.HandoverStateBeingTransferred {
		b.setHandoverStateLocked(dcutil.HandoverStateCompleted)
		b.metrics.RecordHandover(true)
	}

	// A leftover source agent reference means the handover failed: the
	// agent never moved to this bearer. If the source still owns it, reset
	// the source; if nobody owns it, adopt it just long enough to tell the
	// connectivity layer the network is gone.
	if b.handoverSourceAgent != nil {
		if src := b.handoverSourceAgent.Owner(); src != nil {
			logrus.WithFields(logrus.Fields{"bearer": b.name, "source": src.Name()}).
				Warn("Handover failed, resetting source state to idle")
			src.SetHandoverState(dcutil.HandoverStateIdle)
		} else {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Warn("Handover failed and dangling agent found")
			info := b.networkInfo
			info.DetailedState = api.DetailedStateDisconnected
			b.handoverSourceAgent.AcquireOwnership(b, b.transport)
			b.handoverSourceAgent.SendNetworkInfo(info)
			b.handoverSourceAgent.ReleaseOwnership(b)
		}
		b.handoverSourceAgent = nil
		b.metrics.RecordHandover(false)
	}

	if b.connectionParams != nil {
		b.notifyConnectCompletedLocked(b.connectionParams, b.failCause, true)
	}
	if b.disconnectParams != nil {
		b.notifyDisconnectCompletedLocked(b.disconnectParams, true)
	}
	if b.connectionParams == nil && b.disconnectParams == nil && b.failCause != api.FailNone {
		b.notifyAllDisconnectDoneLocked(nil, b.failCause.String())
	}

	b.ctrl.removeActiveCid(b)

	if !b.ctrl.config().IsPdpRejectCause(int(b.failCause)) {
		b.clearSettingsLocked()
	} else {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "cause": b.failCause,
		}).Debug("Retaining settings for PDP reject retry")
	}
}

func (b *Bearer) handleInactive(ev event) bool {
	switch ev.kind {
	case evReset, evReevaluateRestrictedState:
		// Already inactive, nothing to do.
		return true

	case evConnect:
		cp := ev.obj.(*ConnectionParams)
		if !b.initConnectionLocked(cp) {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Debug("CONNECT rejected, incompatible apn profile")
			b.notifyConnectCompletedLocked(cp, api.FailUnacceptableNetworkParameter, false)
			b.transitionTo(inactiveState)
			return true
		}
		if cause := b.connectLocked(cp); cause != api.FailNone {
			logrus.WithFields(logrus.Fields{
				"bearer": b.name, "cause": cause,
			}).Debug("CONNECT failed before setup")
			b.notifyConnectCompletedLocked(cp, cause, false)
			b.transitionTo(inactiveState)
			return true
		}
		if b.subID == dcutil.InvalidSubscriptionID {
			b.subID = cp.SubID
		}
		b.transitionTo(activatingState)
		return true

	case evDisconnect, evDisconnectAll:
		b.notifyDisconnectCompletedLocked(ev.obj.(*DisconnectParams), false)
		return true

	case evRetryConnection:
		if b.connectionParams == nil {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Debug("RETRY_CONNECTION without saved connection params")
			return true
		}
		if !b.initConnectionLocked(b.connectionParams) {
			logrus.WithFields(logrus.Fields{"bearer": b.name}).
				Debug("RETRY_CONNECTION initConnection failed")
			return true
		}
		// The profile may have been modified since the failed attempt,
		// retry with the latest one.
		b.profile = b.connectionParams.ApnContext.Profile()
		b.connectLocked(b.connectionParams)
		b.transitionTo(activatingState)
		return true

	default:
		return false
	}
}

// Activating: a setup request is in flight. The restricted override is
// evaluated here, not on activation, because the upstream contract forbids
// adding restrictions after the agent exists: a restricted request released
// during this window must not leave the network unrestricted by mistake.

func (b *Bearer) enterActivating() {
	b.setHandoverStateLocked(dcutil.HandoverStateIdle)
	b.restrictedOverride = b.shouldRestrictNetworkLocked()
}

func (b *Bearer) handleActivating(ev event) bool {
	switch ev.kind {
	case evConnect, evDrsOrRatChanged:
		// Cannot process until setup resolves.
		b.deferEvent(ev)
		return true

	case evSetupDataConnectionDone:
		p := ev.obj.(setupDonePayload)
		result, cause := b.onSetupConnectionCompletedLocked(p.code, p.response, p.cp)
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "result": result, "cause": cause,
		}).Debug("Setup data connection done")

		switch result {
		case SetupSuccess:
			b.failCause = api.FailNone
			b.metrics.RecordSetupResult(b.transport, api.FailNone)
			b.transitionTo(activeState)

		case SetupErrorRadioNotAvailable:
			// The driver rejected the call and nothing connected.
			// Notifications fire after entering Inactive.
			b.metrics.RecordSetupResult(b.transport, cause)
			b.armInactiveLocked(p.cp, nil, cause)
			b.transitionTo(inactiveState)

		case SetupErrorInvalidArg:
			// The addresses in the response are unusable: deactivate
			// what the modem set up before going inactive.
			b.metrics.RecordSetupResult(b.transport, api.FailUnacceptableNetworkParameter)
			b.tearDownDataLocked(p.cp)
			b.transitionTo(disconnectingErrorCreatingConnectionState)

		case SetupErrorDataServiceError:
			// Store the modem's retry suggestion for the tracker, then
			// report the specific cause from Inactive.
			delay := SuggestedRetryDelay(p.response)
			p.cp.ApnContext.SetModemSuggestedDelay(delay)
			logrus.WithFields(logrus.Fields{
				"bearer": b.name, "cause": cause, "suggested-delay": delay,
			}).Debug("Data service specific setup error")
			b.metrics.RecordSetupResult(b.transport, cause)
			b.armInactiveLocked(p.cp, nil, cause)
			b.transitionTo(inactiveState)

		case SetupErrorStale:
			logrus.WithFields(logrus.Fields{
				"bearer": b.name, "cp-tag": p.cp.tag, "tag": b.tag,
			}).Warn("Dropping stale setup response")
		}
		return true

	default:
		return false
	}
}

// Disconnecting: a deactivate request is in flight.

func (b *Bearer) handleDisconnecting(ev event) bool {
	switch ev.kind {
	case evConnect:
		b.deferEvent(ev)
		return true

	case evDeactivateDone:
		p := ev.obj.(deactivateDonePayload)
		dp, ok := p.params.(*DisconnectParams)
		if !ok {
			return true
		}
		if dp.tag != b.tag {
			logrus.WithFields(logrus.Fields{
				"bearer": b.name, "dp-tag": dp.tag, "tag": b.tag,
			}).Warn("Dropping stale deactivate response")
			return true
		}
		b.armInactiveLocked(nil, dp, api.FailNone)
		b.transitionTo(inactiveState)
		return true

	default:
		return false
	}
}

// DisconnectingErrorCreatingConnection: tearing down a call whose setup
// response could not be turned into link properties.

func (b *Bearer) handleDisconnectingError(ev event) bool {
	switch ev.kind {
	case evDeactivateDone:
		p := ev.obj.(deactivateDonePayload)
		cp, ok := p.params.(*ConnectionParams)
		if !ok {
			return true
		}
		if cp.tag != b.tag {
			logrus.WithFields(logrus.Fields{
				"bearer": b.name, "cp-tag": cp.tag, "tag": b.tag,
			}).Warn("Dropping stale deactivate response")
			return true
		}
		b.armInactiveLocked(cp, nil, api.FailUnacceptableNetworkParameter)
		b.transitionTo(inactiveState)
		return true

	default:
		return false
	}
}

// armInactiveLocked records what the Inactive entry notifications should
// announce.
func (b *Bearer) armInactiveLocked(cp *ConnectionParams, dp *DisconnectParams, cause api.FailCause) {
	b.connectionParams = cp
	b.disconnectParams = dp
	b.failCause = cause
}
