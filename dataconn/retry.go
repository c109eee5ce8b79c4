// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import "github.com/nextmn/go-dataconn/dataconn/api"

// SuggestedRetryDelay decodes the modem's retry suggestion from a failed
// call setup. Per ril.h: a negative value means no suggestion, zero means
// retry as soon as possible, the maximum int32 value means do not retry,
// anything else is a delay in milliseconds.
func SuggestedRetryDelay(response *api.DataCallResponse) api.RetryDelay {
	if response == nil || response.SuggestedRetryTime < 0 {
		return api.NoSuggestedRetryDelay
	}
	if response.SuggestedRetryTime == api.MaxSuggestedRetryTime {
		return api.NoRetry
	}
	return api.RetryDelay(response.SuggestedRetryTime)
}
