// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Observer adapters: collaborators call these from their own goroutines,
// the adapters turn every notification into a posted event.

type radioObserver struct {
	b *Bearer
}

func (o *radioObserver) OnDataRegStateOrRatChanged(drs dcutil.DataRegState, rat dcutil.RadioTech) {
	o.b.post(event{kind: evDrsOrRatChanged, obj: drsRatPayload{drs: drs, rat: rat}})
}

func (o *radioObserver) OnDataRoamingOn() {
	o.b.post(event{kind: evRoamOn})
}

func (o *radioObserver) OnDataRoamingOff() {
	o.b.post(event{kind: evRoamOff})
}

func (o *radioObserver) OnNRStateChanged() {
	o.b.post(event{kind: evNrStateChanged})
}

func (o *radioObserver) OnNRFrequencyChanged() {
	o.b.post(event{kind: evNrFrequencyChanged})
}

type callObserver struct {
	b *Bearer
}

func (o *callObserver) OnVoiceCallStarted() {
	o.b.post(event{kind: evVoiceCallStarted})
}

func (o *callObserver) OnVoiceCallEnded() {
	o.b.post(event{kind: evVoiceCallEnded})
}

type linkObserver struct {
	b *Bearer
}

func (o *linkObserver) OnNattKeepaliveStatus(status api.KeepaliveStatus) {
	o.b.post(event{kind: evKeepaliveStatus, obj: status})
}

func (o *linkObserver) OnLinkCapacityChanged(lce api.LinkCapacityEstimate) {
	o.b.post(event{kind: evLinkCapacityChanged, obj: lce})
}
