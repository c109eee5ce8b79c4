// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder(nil)

	r.RecordStateChange("DC-C-1", dcutil.TransportWWAN, "Activating")
	r.RecordSetupResult(dcutil.TransportWWAN, api.FailNone)
	r.RecordSetupResult(dcutil.TransportWWAN, api.FailCause(26))
	r.RecordDataCallConnected(dcutil.TransportWWAN)
	r.RecordDataCallDisconnected(dcutil.TransportWWAN, "dataDisabled")
	r.RecordHandover(true)
	r.RecordHandover(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.stateChanges.WithLabelValues("WWAN", "Activating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.setupResults.WithLabelValues("WWAN", "NONE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.setupResults.WithLabelValues("WWAN", "CAUSE_26")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.connected.WithLabelValues("WWAN")))
	assert.Equal(t, 0.0, testutil.ToFloat64(
		r.bearersActive.WithLabelValues("WWAN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.handovers.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.handovers.WithLabelValues("failed")))
}

func TestRecorderSharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)
	assert.Equal(t, registry, r.Registry())
}

func TestHandlerServesTextFormat(t *testing.T) {
	r := NewRecorder(nil)
	r.RecordDataCallConnected(dcutil.TransportWLAN)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dataconn_calls_connected_total")
}

func TestNopRecorder(t *testing.T) {
	var rec api.MetricsRecorder = Nop{}
	rec.RecordStateChange("DC-C-1", dcutil.TransportWWAN, "Active")
	rec.RecordSetupResult(dcutil.TransportWWAN, api.FailNone)
	rec.RecordDataCallConnected(dcutil.TransportWWAN)
	rec.RecordDataCallDisconnected(dcutil.TransportWWAN, "x")
	rec.RecordHandover(true)
}
