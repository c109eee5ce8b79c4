// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package dataconn implements the per-session data connection state machine:
// one Bearer per packet data call, all bearers driven by one shared
// dispatcher. External collaborators talk to a bearer by posting events; the
// bearer talks back through the interfaces in the api package.
package dataconn

import (
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Bearer is one live packet data session bound to a radio transport. All
// event processing happens on the controller's dispatcher goroutine; the
// mutex only guards the record against concurrent observer reads.
type Bearer struct {
	ctrl         *Controller
	dataService  api.DataService
	tracker      api.Tracker
	serviceState api.ServiceState
	metrics      api.MetricsRecorder

	id        int
	name      string
	transport dcutil.Transport

	radioObs *radioObserver
	callObs  *callObserver
	linkObs  *linkObserver

	mu       sync.RWMutex
	current  *state
	deferred []event

	// tag is bumped on every Inactive entry and initConnection; any reply
	// carrying an older tag is stale and dropped.
	tag int

	cid          int
	subID        int
	rilRat       dcutil.RadioTech
	dataRegState dcutil.DataRegState

	profile          *apn.Profile
	consumers        map[api.ApnContext]*ConnectionParams
	connectionParams *ConnectionParams
	disconnectParams *DisconnectParams

	failCause     api.FailCause
	lastFailCause api.FailCause
	lastFailTime  time.Time
	createTime    time.Time

	linkProps   api.LinkProperties
	pcscfAddrs  []netip.Addr
	networkInfo api.NetworkInfo
	score       int

	agent               api.NetworkAgent
	handoverSourceAgent api.NetworkAgent
	handoverState       dcutil.HandoverState

	unmeteredUseOnly     bool
	restrictedOverride   bool
	unmeteredOverride    bool
	subscriptionOverride int
	disabledApnTypes     apn.Type

	keepaliveHandles map[int]int // slot -> modem session handle
}

func (b *Bearer) post(ev event) {
	b.ctrl.post(b, ev)
}

// deliver runs on the dispatcher goroutine.
func (b *Bearer) deliver(ev event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.process(ev)
}

// Dispose unsubscribes the bearer and removes it from the controller. The
// bearer must be inactive.
func (b *Bearer) Dispose() {
	b.serviceState.UnregisterRadioObserver(b.radioObs)
	b.ctrl.removeBearer(b)
}

/* Public API: everything below posts an event and returns. */

// BringUp requests a connection to the apn context for one consumer. The
// completion resolves exactly once.
func (b *Bearer) BringUp(ctx api.ApnContext, profileID int, rat dcutil.RadioTech,
	onCompleted api.ConnectCompletion, generation int, requestType api.RequestType,
	subID int, preferred bool) {
	b.post(event{kind: evConnect, obj: &ConnectionParams{
		ApnContext:           ctx,
		ProfileID:            profileID,
		Rat:                  rat,
		OnCompleted:          onCompleted,
		ConnectionGeneration: generation,
		RequestType:          requestType,
		SubID:                subID,
		Preferred:            preferred,
	}})
}

// TearDown releases one consumer; the call is only deactivated when the last
// consumer leaves.
func (b *Bearer) TearDown(ctx api.ApnContext, reason string, onCompleted api.DisconnectCompletion) {
	b.post(event{kind: evDisconnect, obj: &DisconnectParams{
		ApnContext:  ctx,
		Reason:      reason,
		ReleaseType: api.ReleaseTypeDetach,
		OnCompleted: onCompleted,
	}})
}

// TearDownAll deactivates the call regardless of reference count.
func (b *Bearer) TearDownAll(reason string, releaseType api.ReleaseType, onCompleted api.DisconnectCompletion) {
	b.post(event{kind: evDisconnectAll, obj: &DisconnectParams{
		Reason:      reason,
		ReleaseType: releaseType,
		OnCompleted: onCompleted,
	}})
}

// TearDownNow asks the driver to deactivate immediately, with no reply
// expected.
func (b *Bearer) TearDownNow() {
	b.post(event{kind: evTearDownNow})
}

// Reset forces the bearer to Inactive from any state.
func (b *Bearer) Reset() {
	b.post(event{kind: evReset})
}

// RetryConnection re-attempts the last failed bring-up with the saved
// parameters, used with the PDP reject retention policy.
func (b *Bearer) RetryConnection() {
	b.post(event{kind: evRetryConnection})
}

// ReevaluateRestrictedState lifts the restricted override when its
// conditions no longer hold. Restrictions never tighten this way.
func (b *Bearer) ReevaluateRestrictedState() {
	b.post(event{kind: evReevaluateRestrictedState})
}

// ReevaluateDataConnectionProperties recomputes the score and pushes it when
// changed.
func (b *Bearer) ReevaluateDataConnectionProperties() {
	b.post(event{kind: evReevaluateDataConnectionProperties})
}

// OnLostConnection reports that the modem dropped the call externally.
func (b *Bearer) OnLostConnection() {
	b.post(event{kind: evLostConnection})
}

// OnSubscriptionOverride applies policy override bits (OverrideUnmetered,
// OverrideCongested) and refreshes the exposed capabilities.
func (b *Bearer) OnSubscriptionOverride(overrideMask, overrideValue int) {
	b.mu.Lock()
	b.subscriptionOverride = (b.subscriptionOverride &^ overrideMask) |
		(overrideValue & overrideMask)
	b.mu.Unlock()
	b.post(event{kind: evOverrideChanged})
}

// OnMeterednessChanged applies the tracker-level unmetered override.
func (b *Bearer) OnMeterednessChanged(unmetered bool) {
	b.post(event{kind: evMeterednessChanged, obj: unmetered})
}

// OnBandwidthRefreshResponse delivers a solicited bandwidth estimate. A nil
// estimate reports a failed refresh.
func (b *Bearer) OnBandwidthRefreshResponse(lce *api.LinkCapacityEstimate) {
	p := lcePayload{}
	if lce != nil {
		p = lcePayload{lce: *lce, ok: true}
	}
	b.post(event{kind: evBwRefreshResponse, obj: p})
}

// OnStartSocketKeepalive forwards an upstream keepalive start request.
func (b *Bearer) OnStartSocketKeepalive(slot int, packet []byte, interval time.Duration) {
	b.post(event{kind: evKeepaliveStartRequest, obj: keepaliveStartRequestPayload{
		slot:     slot,
		packet:   packet,
		interval: interval,
	}})
}

// OnStopSocketKeepalive forwards an upstream keepalive stop request.
func (b *Bearer) OnStopSocketKeepalive(slot int) {
	b.post(event{kind: evKeepaliveStopRequest, obj: keepaliveStopRequestPayload{slot: slot}})
}

/* Observers. */

func (b *Bearer) Name() string { return b.name }

func (b *Bearer) ID() int { return b.id }

func (b *Bearer) Transport() dcutil.Transport { return b.transport }

func (b *Bearer) Cid() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cid
}

func (b *Bearer) SubID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subID
}

func (b *Bearer) IsInactive() bool { return b.inState(inactiveState) }

func (b *Bearer) IsActivating() bool { return b.inState(activatingState) }

func (b *Bearer) IsActive() bool { return b.inState(activeState) }

func (b *Bearer) IsDisconnecting() bool { return b.inState(disconnectingState) }

func (b *Bearer) inState(s *state) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current == s
}

// LinkProperties returns a copy of the current link properties.
func (b *Bearer) LinkProperties() api.LinkProperties {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.linkProps.Clone()
}

// NetworkCapabilities synthesizes the currently exposed capability set.
func (b *Bearer) NetworkCapabilities() api.NetworkCapabilities {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.networkCapabilitiesLocked()
}

// PcscfAddresses returns the P-CSCF addresses from the call response.
func (b *Bearer) PcscfAddresses() []netip.Addr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.pcscfAddrs)
}

// ApnContexts lists the attached consumers.
func (b *Bearer) ApnContexts() []api.ApnContext {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]api.ApnContext, 0, len(b.consumers))
	for ctx := range b.consumers {
		out = append(out, ctx)
	}
	return out
}

// ApnProfile returns the profile being served, nil when inactive.
func (b *Bearer) ApnProfile() *apn.Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profile
}

// NetworkAgent returns the owned agent, nil outside Active.
func (b *Bearer) NetworkAgent() api.NetworkAgent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agent
}

func (b *Bearer) HandoverState() dcutil.HandoverState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handoverState
}

// SetHandoverState is called by the handover destination on its source.
func (b *Bearer) SetHandoverState(state dcutil.HandoverState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setHandoverStateLocked(state)
}

func (b *Bearer) setHandoverStateLocked(state dcutil.HandoverState) {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name, "from": b.handoverState, "to": state,
	}).Debug("Handover state changed")
	b.handoverState = state
}

func (b *Bearer) HasBeenTransferred() bool {
	return b.HandoverState() == dcutil.HandoverStateCompleted
}

func (b *Bearer) IsBeingInTransferring() bool {
	return b.HandoverState() == dcutil.HandoverStateBeingTransferred
}

// Score returns the score currently reported upstream.
func (b *Bearer) Score() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.score
}

// LastFailCause returns the cause of the last failed setup.
func (b *Bearer) LastFailCause() api.FailCause {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastFailCause
}

// IsIPv4Connected reports whether a usable IPv4 address is present.
func (b *Bearer) IsIPv4Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, prefix := range b.linkProps.Addresses {
		if prefix.Addr().Is4() && dcutil.IsUsableAddress(prefix.Addr()) {
			return true
		}
	}
	return false
}

// IsIPv6Connected reports whether a usable IPv6 address is present.
func (b *Bearer) IsIPv6Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, prefix := range b.linkProps.Addresses {
		if prefix.Addr().Is6() && !prefix.Addr().Is4In6() && dcutil.IsUsableAddress(prefix.Addr()) {
			return true
		}
	}
	return false
}

/* Internals, dispatcher context only. */

// initConnection binds one consumer to the bearer. It fails only when the
// profile cannot serve the requested APN type.
func (b *Bearer) initConnectionLocked(cp *ConnectionParams) bool {
	if b.profile == nil {
		// Only adopt a profile when none is set, which can only happen
		// while inactive.
		b.profile = cp.ApnContext.Profile()
	}
	if b.profile == nil || !b.profile.CanHandleType(cp.ApnContext.TypeBitmask()) {
		return false
	}
	b.tag++
	cp.tag = b.tag
	b.connectionParams = cp
	// Always store the latest params so the connection generation does not
	// go stale.
	b.consumers[cp.ApnContext] = cp
	logrus.WithFields(logrus.Fields{
		"bearer": b.name, "tag": b.tag, "consumers": len(b.consumers),
	}).Debug("Connection initialized")
	return true
}

// connectLocked issues the setup request towards the data service.
func (b *Bearer) connectLocked(cp *ConnectionParams) api.FailCause {
	logrus.WithFields(logrus.Fields{
		"bearer": b.name,
		"entry":  b.profile.EntryName,
		"apn":    b.profile.Name,
		"proxy":  b.profile.Proxy,
		"port":   b.profile.ProxyPort,
	}).Info("Connecting")

	b.createTime = time.Time{}
	b.lastFailTime = time.Time{}
	b.lastFailCause = api.FailNone

	profile := apn.NewDataProfile(b.profile, cp.ProfileID, cp.Preferred)

	// The modem's own roaming state decides the protocol; allowRoaming is
	// also set when the framework overrides a roaming state the modem
	// still believes in, so the modem does not reject the call.
	modemRoaming := b.serviceState.DataRoamingFromRegistration()
	allowRoaming := b.tracker.DataRoamingEnabled() ||
		(modemRoaming && !b.serviceState.DataRoaming())

	var handoverLP *api.LinkProperties
	reason := api.RequestReasonNormal
	if cp.RequestType == api.RequestTypeHandover {
		lp, cause := b.prepareHandoverLocked(cp)
		if cause != api.FailNone {
			return cause
		}
		handoverLP = lp
		reason = api.RequestReasonHandover
	}

	b.dataService.SetupDataCall(
		dcutil.AccessNetworkFor(cp.Rat),
		profile,
		modemRoaming,
		allowRoaming,
		reason,
		handoverLP,
		func(code api.ResultCode, response *api.DataCallResponse) {
			b.post(event{kind: evSetupDataConnectionDone, obj: setupDonePayload{
				code:     code,
				response: response,
				cp:       cp,
			}})
		})
	return api.FailNone
}

// onSetupConnectionCompletedLocked classifies a setup reply.
func (b *Bearer) onSetupConnectionCompletedLocked(code api.ResultCode,
	response *api.DataCallResponse, cp *ConnectionParams) (SetupResult, api.FailCause) {
	if cp.tag != b.tag {
		return SetupErrorStale, api.FailNone
	}
	if code == api.ResultErrorIllegalState || response == nil {
		return SetupErrorRadioNotAvailable, api.FailRadioNotAvailable
	}
	if response.Cause != api.FailNone {
		if response.Cause == api.FailRadioNotAvailable {
			return SetupErrorRadioNotAvailable, api.FailRadioNotAvailable
		}
		return SetupErrorDataServiceError, response.Cause
	}

	b.cid = response.Cid
	b.pcscfAddrs = slices.Clone(response.PcscfAddresses)

	result := b.updateLinkPropertyLocked(response)
	if result != SetupSuccess {
		return result, api.FailUnacceptableNetworkParameter
	}
	return SetupSuccess, api.FailNone
}

// updateLinkPropertyLocked rebuilds the link properties from a call
// response and pushes them when they changed.
func (b *Bearer) updateLinkPropertyLocked(response *api.DataCallResponse) SetupResult {
	old := b.linkProps
	cfg := b.ctrl.config()

	lp, result := buildLinkProperties(response, b.profile,
		b.ctrl.systemDNS(response.InterfaceName), cfg.DNSCheckDisabled, cfg.MobileMTU)
	if result != SetupSuccess {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "result": result,
		}).Warn("Link properties build failed")
		return result
	}

	// The HTTP proxy is not part of the call response, keep it.
	lp.HTTPProxy = old.HTTPProxy
	b.linkProps = lp
	b.updateTcpBufferSizesLocked(b.rilRat)

	if !b.linkProps.Equal(old) && b.agent != nil {
		b.agent.SendLinkProperties(b.linkProps)
	}
	return SetupSuccess
}

// tearDownDataLocked asks the driver to deactivate the call. The disconnect
// reason maps radio-off and PDP reset to a SHUTDOWN deactivation, handover
// releases to a HANDOVER one.
func (b *Bearer) tearDownDataLocked(params any) {
	reason := api.RequestReasonNormal
	if dp, ok := params.(*DisconnectParams); ok {
		switch {
		case dp.Reason == api.ReasonRadioTurnedOff || dp.Reason == api.ReasonPDPReset:
			reason = api.RequestReasonShutdown
		case dp.ReleaseType == api.ReleaseTypeHandover:
			reason = api.RequestReasonHandover
		}
	}
	logrus.WithFields(logrus.Fields{
		"bearer": b.name, "cid": b.cid, "reason": reason,
	}).Debug("Tearing down data call")
	b.dataService.DeactivateDataCall(b.cid, reason,
		func(code api.ResultCode) {
			b.post(event{kind: evDeactivateDone, obj: deactivateDonePayload{
				code:   code,
				params: params,
			}})
		})
}

// notifyConnectCompletedLocked resolves the triggering consumer's completion
// exactly once and, when sendAll is set, broadcasts the failure to the
// remaining consumers. PDP-reject retained causes suppress the broadcast so
// the tracker can retry quietly.
func (b *Bearer) notifyConnectCompletedLocked(cp *ConnectionParams, cause api.FailCause, sendAll bool) {
	var alreadySent api.ApnContext
	if cp != nil && cp.OnCompleted != nil {
		onCompleted := cp.OnCompleted
		cp.OnCompleted = nil
		alreadySent = cp.ApnContext

		now := time.Now()
		if cause == api.FailNone {
			b.createTime = now
		} else {
			b.lastFailCause = cause
			b.lastFailTime = now
		}
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "cause": cause,
		}).Debug("Notify connect completed")
		onCompleted(cause, b.cid, cp.RequestType)
	}
	if sendAll && !b.ctrl.config().IsPdpRejectCause(int(cause)) {
		for ctx, consumer := range b.consumers {
			if ctx == alreadySent {
				continue
			}
			ctx.SetReason(cause.String())
			b.tracker.NotifyDataSetupCompleteError(ctx, b.cid, consumer.RequestType)
		}
	}
}

// notifyAllConnectedLocked announces a successful activation to every
// consumer: the triggering one through its completion, the rest through the
// tracker broadcast.
func (b *Bearer) notifyAllConnectedLocked() {
	var triggering api.ApnContext
	if b.connectionParams != nil {
		triggering = b.connectionParams.ApnContext
	}
	for ctx, consumer := range b.consumers {
		if ctx == triggering {
			continue
		}
		ctx.SetReason(api.ReasonConnected)
		b.tracker.NotifyDataSetupComplete(ctx, b.cid, consumer.RequestType)
	}
	if b.connectionParams != nil {
		b.notifyConnectCompletedLocked(b.connectionParams, api.FailNone, false)
	}
}

// notifyDisconnectCompletedLocked resolves the triggering teardown and, when
// sendAll is set, broadcasts the disconnect to the remaining consumers.
func (b *Bearer) notifyDisconnectCompletedLocked(dp *DisconnectParams, sendAll bool) {
	var alreadySent api.ApnContext
	reason := ""
	if dp != nil && dp.OnCompleted != nil {
		onCompleted := dp.OnCompleted
		dp.OnCompleted = nil
		alreadySent = dp.ApnContext
		reason = dp.Reason
		onCompleted()
	}
	if sendAll {
		if reason == "" {
			reason = api.FailUnknown.String()
		}
		b.notifyAllDisconnectDoneLocked(alreadySent, reason)
	}
}

func (b *Bearer) notifyAllDisconnectDoneLocked(alreadySent api.ApnContext, reason string) {
	for ctx, consumer := range b.consumers {
		if ctx == alreadySent {
			continue
		}
		ctx.SetReason(reason)
		b.tracker.NotifyDisconnectDone(ctx, b.cid, consumer.RequestType)
	}
}

// clearSettingsLocked resets the record on Inactive entry.
func (b *Bearer) clearSettingsLocked() {
	logrus.WithFields(logrus.Fields{"bearer": b.name}).Debug("Clearing settings")

	b.createTime = time.Time{}
	b.lastFailTime = time.Time{}
	b.lastFailCause = api.FailNone
	b.failCause = api.FailNone
	b.cid = -1

	b.pcscfAddrs = nil
	b.linkProps = api.LinkProperties{}
	b.consumers = make(map[api.ApnContext]*ConnectionParams)
	b.connectionParams = nil
	b.disconnectParams = nil
	b.profile = nil
	b.unmeteredUseOnly = false
	b.restrictedOverride = false
	b.disabledApnTypes = apn.TypeNone
	b.subID = dcutil.InvalidSubscriptionID
	b.subscriptionOverride = 0
	b.unmeteredOverride = false
}
