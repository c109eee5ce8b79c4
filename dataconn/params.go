// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"fmt"

	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// ConnectionParams saves one consumer's bring-up request. tag is stamped by
// initConnection so replies to an aborted attempt can be discarded.
type ConnectionParams struct {
	tag int

	ApnContext           api.ApnContext
	ProfileID            int
	Rat                  dcutil.RadioTech
	OnCompleted          api.ConnectCompletion
	ConnectionGeneration int
	RequestType          api.RequestType
	SubID                int
	Preferred            bool
}

func (cp *ConnectionParams) String() string {
	return fmt.Sprintf("{tag=%d profileId=%d rat=%s requestType=%s subId=%d preferred=%t}",
		cp.tag, cp.ProfileID, cp.Rat, cp.RequestType, cp.SubID, cp.Preferred)
}

// DisconnectParams saves one teardown request. A nil ApnContext means the
// teardown ignores reference counting and applies to every consumer.
type DisconnectParams struct {
	tag int

	ApnContext  api.ApnContext
	Reason      string
	ReleaseType api.ReleaseType
	OnCompleted api.DisconnectCompletion
}

func (dp *DisconnectParams) String() string {
	return fmt.Sprintf("{tag=%d reason=%q releaseType=%s}", dp.tag, dp.Reason, dp.ReleaseType)
}
