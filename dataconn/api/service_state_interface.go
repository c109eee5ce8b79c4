// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "github.com/nextmn/go-dataconn/dcutil"

// RadioObserver receives radio-side notifications a bearer subscribes to for
// its whole lifetime.
type RadioObserver interface {
	OnDataRegStateOrRatChanged(drs dcutil.DataRegState, rat dcutil.RadioTech)
	OnDataRoamingOn()
	OnDataRoamingOff()
	OnNRStateChanged()
	OnNRFrequencyChanged()
}

// CallObserver receives voice-call notifications an Active bearer subscribes
// to for suspend-state tracking.
type CallObserver interface {
	OnVoiceCallStarted()
	OnVoiceCallEnded()
}

// ServiceState is the service-state tracker the bearer consults for
// registration, roaming, NR and voice-call conditions.
type ServiceState interface {
	RegisterRadioObserver(RadioObserver)
	UnregisterRadioObserver(RadioObserver)
	RegisterCallObserver(CallObserver)
	UnregisterCallObserver(CallObserver)

	DataRegState(t dcutil.Transport) dcutil.DataRegState
	RadioTech(t dcutil.Transport) dcutil.RadioTech
	// DataNetworkType is the technology reported upstream in network info.
	DataNetworkType() dcutil.RadioTech
	DataRoaming() bool
	// DataRoamingFromRegistration is the modem's own roaming state, used
	// on setup so the modem does not reject the call when the framework
	// overrides roaming.
	DataRoamingFromRegistration() bool
	NRState() dcutil.NRState
	NRFrequencyRange() dcutil.FrequencyRange
	UsingCarrierAggregation() bool
	// HasNRContext reports whether cid rides the NR anchor, which selects
	// NR TCP buffer sizing on an LTE-reported technology.
	HasNRContext(cid int) bool

	InService() bool
	ConcurrentVoiceAndDataAllowed() bool
	CallIdle() bool
}
