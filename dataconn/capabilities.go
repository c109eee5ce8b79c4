// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Subscription override bits fed by the policy manager.
const (
	OverrideUnmetered = 1 << 0
	OverrideCongested = 1 << 1
)

// Scores reported upstream: the bearer serving an unconstrained Internet
// request gets the higher one so it is not replaced accidentally.
const (
	defaultInternetConnectionScore = 50
	otherConnectionScore           = 45
)

var apnTypeCapabilities = map[apn.Type][]api.Capability{
	apn.TypeDefault:   {api.CapInternet},
	apn.TypeMMS:       {api.CapMMS},
	apn.TypeSUPL:      {api.CapSUPL},
	apn.TypeDUN:       {api.CapDUN},
	apn.TypeFOTA:      {api.CapFOTA},
	apn.TypeIMS:       {api.CapIMS},
	apn.TypeCBS:       {api.CapCBS},
	apn.TypeIA:        {api.CapIA},
	apn.TypeEmergency: {api.CapEIMS},
	apn.TypeMCX:       {api.CapMCX},
}

// Capability sets deciding the default restricted marking: a network with
// only capabilities from the restricted set and none from the unrestricted
// one does not get NOT_RESTRICTED.
var (
	unrestrictedCapabilities = []api.Capability{
		api.CapInternet, api.CapMMS, api.CapSUPL,
	}
	restrictedCapabilities = []api.Capability{
		api.CapDUN, api.CapFOTA, api.CapIMS, api.CapCBS, api.CapIA,
		api.CapEIMS, api.CapMCX,
	}
)

// networkCapabilitiesLocked synthesizes the capability set exposed upstream
// from the profile's types, the override bits and the service state. It is a
// pure function of the bearer record: calling it twice on unchanged inputs
// yields equal sets.
func (b *Bearer) networkCapabilitiesLocked() api.NetworkCapabilities {
	var nc api.NetworkCapabilities
	cfg := b.ctrl.config()
	metered := cfg.MeteredTypes()

	if b.profile != nil {
		for _, t := range (b.profile.TypeBitmask &^ b.disabledApnTypes).Types() {
			if !b.restrictedOverride && b.unmeteredUseOnly && apn.IsMeteredType(t, metered) {
				logrus.WithFields(logrus.Fields{
					"bearer": b.name, "apn-type": t,
				}).Debug("Dropped metered type for the unmetered data call")
				continue
			}
			for _, c := range apnTypeCapabilities[t] {
				nc.Add(c)
			}
		}

		if (b.unmeteredUseOnly && !b.restrictedOverride) || !b.profile.MeteredBy(metered) {
			nc.Add(api.CapNotMetered)
		} else {
			nc.Remove(api.CapNotMetered)
		}

		maybeMarkRestricted(&nc)
	}

	if b.restrictedOverride {
		nc.Remove(api.CapNotRestricted)
		// No tethering on restriction-overridden networks.
		nc.Remove(api.CapDUN)
	}

	down, up := b.linkBandwidthsLocked()
	nc.LinkDownstreamKbps = down
	nc.LinkUpstreamKbps = up

	nc.NetworkSpecifier = strconv.Itoa(b.subID)

	nc.Set(api.CapNotRoaming, !b.serviceState.DataRoaming())
	nc.Add(api.CapNotCongested)

	// Policy overrides win over everything derived above.
	if b.subscriptionOverride&OverrideUnmetered != 0 {
		nc.Add(api.CapNotMetered)
	}
	if b.subscriptionOverride&OverrideCongested != 0 {
		nc.Remove(api.CapNotCongested)
	}
	if b.unmeteredOverride {
		nc.Add(api.CapNotMetered)
	}

	return nc
}

// maybeMarkRestricted grants NOT_RESTRICTED unless the set carries only
// restricted service capabilities.
func maybeMarkRestricted(nc *api.NetworkCapabilities) {
	hasUnrestricted := false
	for _, c := range unrestrictedCapabilities {
		if nc.Has(c) {
			hasUnrestricted = true
			break
		}
	}
	hasRestricted := false
	for _, c := range restrictedCapabilities {
		if nc.Has(c) {
			hasRestricted = true
			break
		}
	}
	if hasRestricted && !hasUnrestricted {
		return
	}
	nc.Add(api.CapNotRestricted)
}

// linkBandwidthsLocked looks up the exposed bandwidth pair by technology
// name, using the NR Non-Standalone names when NR rides the LTE anchor.
func (b *Bearer) linkBandwidthsLocked() (down, up int) {
	ratName := b.rilRat.String()
	if b.rilRat == dcutil.RadioTechLTE && b.nrConnectedLocked() {
		if b.serviceState.NRFrequencyRange() == dcutil.FrequencyRangeMmwave {
			ratName = dcutil.RATNameNRNSAMmwave
		} else {
			ratName = dcutil.RATNameNRNSA
		}
	}
	if bw, ok := b.ctrl.config().LinkBandwidths(ratName); ok {
		return bw.DownstreamKbps, bw.UpstreamKbps
	}
	return 14, 14
}

func (b *Bearer) nrConnectedLocked() bool {
	return b.serviceState.NRState() == dcutil.NRStateConnected
}

// calculateScoreLocked returns the higher score when a consumer asks for
// Internet with no network specifier: that bearer is the default Internet
// connection and must not be displaced.
func (b *Bearer) calculateScoreLocked() int {
	for ctx := range b.consumers {
		for _, req := range ctx.Requests() {
			if req.HasCapability(api.CapInternet) && req.Specifier == "" {
				return defaultInternetConnectionScore
			}
		}
	}
	return otherConnectionScore
}

// updateScoreLocked recomputes the score and pushes it when changed.
func (b *Bearer) updateScoreLocked() {
	old := b.score
	b.score = b.calculateScoreLocked()
	if old != b.score && b.agent != nil {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "old": old, "new": b.score,
		}).Debug("Updating network score")
		b.agent.SendNetworkScore(b.score)
	}
}

// updateNetworkInfoLocked refreshes the technology and roaming flags
// reported upstream.
func (b *Bearer) updateNetworkInfoLocked() {
	b.networkInfo.NetworkType = b.serviceState.DataNetworkType()
	b.networkInfo.Roaming = b.serviceState.DataRoaming()
}

// updateSuspendStateLocked decides between CONNECTED and SUSPENDED: out of
// service suspends, and so does a voice call when the network cannot do
// concurrent voice and data.
func (b *Bearer) updateSuspendStateLocked() {
	if b.agent == nil {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Debug("Setting suspend state without a network agent")
	}
	switch {
	case !b.serviceState.InService():
		b.networkInfo.DetailedState = api.DetailedStateSuspended
	case !b.serviceState.ConcurrentVoiceAndDataAllowed() && !b.serviceState.CallIdle():
		b.networkInfo.DetailedState = api.DetailedStateSuspended
	default:
		b.networkInfo.DetailedState = api.DetailedStateConnected
	}
}

// shouldRestrictNetworkLocked decides the restricted override at Activating
// entry: a restricted request on a metered APN while data is disabled (or
// roaming with roaming data off) restricts the network to privileged users.
func (b *Bearer) shouldRestrictNetworkLocked() bool {
	anyRestricted := false
	for ctx := range b.consumers {
		if ctx.HasRestrictedRequests(true) {
			anyRestricted = true
			break
		}
	}
	if !anyRestricted {
		return false
	}
	if !b.profile.MeteredBy(b.ctrl.config().MeteredTypes()) {
		return false
	}
	if !b.tracker.DataEnabled() {
		return true
	}
	if !b.tracker.DataRoamingEnabled() && b.serviceState.DataRoaming() {
		return true
	}
	return false
}

// isUnmeteredUseOnlyLocked reports whether the bearer may only serve
// unmetered consumers: data disabled, not roaming-permitted, every attached
// consumer unmetered, and not on WLAN (always unmetered there).
func (b *Bearer) isUnmeteredUseOnlyLocked() bool {
	if b.transport == dcutil.TransportWLAN {
		return false
	}
	if b.tracker.DataEnabled() {
		return false
	}
	if b.tracker.DataRoamingEnabled() && b.serviceState.DataRoaming() {
		return false
	}
	metered := b.ctrl.config().MeteredTypes()
	for ctx := range b.consumers {
		if apn.IsMeteredType(ctx.TypeBitmask(), metered) {
			return false
		}
	}
	return true
}
