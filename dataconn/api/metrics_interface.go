// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "github.com/nextmn/go-dataconn/dcutil"

// MetricsRecorder receives lifecycle events for instrumentation. A controller
// with no recorder wired uses a built-in no-op recorder.
type MetricsRecorder interface {
	RecordStateChange(bearer string, transport dcutil.Transport, state string)
	RecordSetupResult(transport dcutil.Transport, cause FailCause)
	RecordDataCallConnected(transport dcutil.Transport)
	RecordDataCallDisconnected(transport dcutil.Transport, reason string)
	RecordHandover(success bool)
}
