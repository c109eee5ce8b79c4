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

// NAT-T keepalive offload. Requests are forwarded to the modem on WWAN; the
// data service API carries no keepalive support on WLAN, so those are
// answered with an invalid-network error. The slot to modem-handle mapping
// lives here for the lifetime of the active call.

func (b *Bearer) handleKeepaliveStartRequestLocked(p keepaliveStartRequestPayload) {
	if b.transport != dcutil.TransportWWAN {
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorInvalidNetwork)
		}
		return
	}
	slot := p.slot
	b.dataService.StartNattKeepalive(b.cid, p.packet, p.interval,
		func(code api.ResultCode, status *api.KeepaliveStatus) {
			b.post(event{kind: evKeepaliveStarted, obj: keepaliveStartedPayload{
				slot:   slot,
				code:   code,
				status: status,
			}})
		})
}

func (b *Bearer) handleKeepaliveStopRequestLocked(p keepaliveStopRequestPayload) {
	handle, ok := b.keepaliveHandles[p.slot]
	if !ok {
		logrus.WithFields(logrus.Fields{"bearer": b.name, "slot": p.slot}).
			Warn("No handle found for keepalive stop request")
		return
	}
	slot := p.slot
	b.dataService.StopNattKeepalive(handle,
		func(code api.ResultCode, _ *api.KeepaliveStatus) {
			b.post(event{kind: evKeepaliveStopped, obj: keepaliveStoppedPayload{
				slot:   slot,
				handle: handle,
				code:   code,
			}})
		})
}

func (b *Bearer) handleKeepaliveStartedLocked(p keepaliveStartedPayload) {
	if p.code != api.ResultSuccess || p.status == nil {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "slot": p.slot, "code": p.code,
		}).Warn("Error starting keepalive")
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorHardware)
		}
		return
	}
	b.keepaliveHandles[p.slot] = p.status.SessionHandle
	switch p.status.Code {
	case api.KeepaliveActive:
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveSuccess)
		}
	case api.KeepalivePending:
		// The modem confirms or rejects through a later status report.
	default:
		delete(b.keepaliveHandles, p.slot)
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorUnknown)
		}
	}
}

func (b *Bearer) handleKeepaliveStatusLocked(status api.KeepaliveStatus) {
	slot, ok := b.slotForKeepaliveHandleLocked(status.SessionHandle)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "handle": status.SessionHandle,
		}).Warn("Keepalive status for unknown handle")
		return
	}
	switch status.Code {
	case api.KeepaliveActive:
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(slot, api.KeepaliveSuccess)
		}
	case api.KeepaliveInactive:
		delete(b.keepaliveHandles, slot)
		if b.agent != nil {
			b.agent.OnSocketKeepaliveEvent(slot, api.KeepaliveErrorUnknown)
		}
	}
}

func (b *Bearer) handleKeepaliveStoppedLocked(p keepaliveStoppedPayload) {
	delete(b.keepaliveHandles, p.slot)
	if b.agent == nil {
		return
	}
	if p.code != api.ResultSuccess {
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "handle": p.handle, "code": p.code,
		}).Warn("Error stopping keepalive")
		b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveErrorUnknown)
		return
	}
	b.agent.OnSocketKeepaliveEvent(p.slot, api.KeepaliveSuccess)
}

func (b *Bearer) slotForKeepaliveHandleLocked(handle int) (int, bool) {
	for slot, h := range b.keepaliveHandles {
		if h == handle {
			return slot, true
		}
	}
	return 0, false
}
