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

// prepareHandoverLocked locates the source bearer on the opposite transport,
// takes a non-owning reference to its agent, marks it as being transferred
// and snapshots its link properties for the setup request.
//
// Ownership of the agent does not move here: the source keeps it until this
// bearer reaches Active.
func (b *Bearer) prepareHandoverLocked(cp *ConnectionParams) (*api.LinkProperties, api.FailCause) {
	if cp.ApnContext == nil {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Warn("Handover failed, no apn context")
		return nil, api.FailHandoverFailed
	}
	src := b.tracker.BearerByType(b.transport.Opposite(), cp.ApnContext.TypeBitmask())
	if src == nil {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Warn("Handover failed, no source data call")
		return nil, api.FailHandoverFailed
	}

	lp := src.LinkProperties()

	// Preserve the potential network agent from the source data call. The
	// ownership is not transferred at this moment.
	b.handoverSourceAgent = src.NetworkAgent()
	logrus.WithFields(logrus.Fields{
		"bearer": b.name, "source": src.Name(), "has-agent": b.handoverSourceAgent != nil,
	}).Debug("Handover started, preserved the source agent")
	src.SetHandoverState(dcutil.HandoverStateBeingTransferred)

	if lp.Empty() {
		logrus.WithFields(logrus.Fields{"bearer": b.name, "source": src.Name()}).
			Warn("Handover failed, source has no link properties")
		src.SetHandoverState(dcutil.HandoverStateIdle)
		b.handoverSourceAgent = nil
		return nil, api.FailHandoverFailed
	}
	return &lp, api.FailNone
}

// adoptHandoverAgentLocked runs at Active entry of the handover destination:
// take ownership of the source's agent so the connectivity layer sees a
// seamless transfer, or fall back to a fresh agent.
func (b *Bearer) adoptHandoverAgentLocked() {
	if b.handoverSourceAgent != nil {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Info("Transferred network agent from handover source")
		b.agent = b.handoverSourceAgent
		b.agent.AcquireOwnership(b, b.transport)
		b.score = b.calculateScoreLocked()

		// Refresh what the agent exposes now that this transport serves
		// the session.
		b.agent.SendNetworkCapabilities(b.networkCapabilitiesLocked())
		b.agent.SendLinkProperties(b.linkProps)
		b.handoverSourceAgent = nil
		return
	}

	src := b.tracker.BearerByType(b.transport.Opposite(), b.connectionParams.ApnContext.TypeBitmask())
	if src != nil {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Debug("Creating network agent, source data call did not own one")
	} else {
		logrus.WithFields(logrus.Fields{"bearer": b.name}).
			Warn("Failed to get network agent from original data call, creating a new one")
	}
	b.createNetworkAgentLocked()
}
