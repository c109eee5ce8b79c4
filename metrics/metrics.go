// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package metrics exposes bearer lifecycle counters through a prometheus
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Recorder implements api.MetricsRecorder on a prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	stateChanges  *prometheus.CounterVec
	setupResults  *prometheus.CounterVec
	connected     *prometheus.CounterVec
	disconnected  *prometheus.CounterVec
	handovers     *prometheus.CounterVec
	bearersActive *prometheus.GaugeVec
}

// NewRecorder creates a Recorder on registry. A nil registry gets a fresh
// private one.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry: registry,
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataconn_state_changes_total",
			Help: "Bearer state machine transitions.",
		}, []string{"transport", "state"}),
		setupResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataconn_setup_results_total",
			Help: "Data call setup results by fail cause.",
		}, []string{"transport", "cause"}),
		connected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataconn_calls_connected_total",
			Help: "Data calls that reached the active state.",
		}, []string{"transport"}),
		disconnected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataconn_calls_disconnected_total",
			Help: "Data calls torn down, by reason.",
		}, []string{"transport", "reason"}),
		handovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataconn_handovers_total",
			Help: "Transport handover attempts by outcome.",
		}, []string{"outcome"}),
		bearersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dataconn_bearers_active",
			Help: "Bearers currently in the active state.",
		}, []string{"transport"}),
	}
	registry.MustRegister(r.stateChanges, r.setupResults, r.connected,
		r.disconnected, r.handovers, r.bearersActive)
	return r
}

// Registry returns the backing registry for exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the registry in the prometheus
// text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) RecordStateChange(bearer string, transport dcutil.Transport, state string) {
	r.stateChanges.WithLabelValues(transport.String(), state).Inc()
}

func (r *Recorder) RecordSetupResult(transport dcutil.Transport, cause api.FailCause) {
	r.setupResults.WithLabelValues(transport.String(), cause.String()).Inc()
}

func (r *Recorder) RecordDataCallConnected(transport dcutil.Transport) {
	r.connected.WithLabelValues(transport.String()).Inc()
	r.bearersActive.WithLabelValues(transport.String()).Inc()
}

func (r *Recorder) RecordDataCallDisconnected(transport dcutil.Transport, reason string) {
	r.disconnected.WithLabelValues(transport.String(), reason).Inc()
	r.bearersActive.WithLabelValues(transport.String()).Dec()
}

func (r *Recorder) RecordHandover(success bool) {
	outcome := "failed"
	if success {
		outcome = "completed"
	}
	r.handovers.WithLabelValues(outcome).Inc()
}

// Nop discards every record. Used when no registry is wired.
type Nop struct{}

func (Nop) RecordStateChange(string, dcutil.Transport, string) {}

func (Nop) RecordSetupResult(dcutil.Transport, api.FailCause) {}

func (Nop) RecordDataCallConnected(dcutil.Transport) {}

func (Nop) RecordDataCallDisconnected(dcutil.Transport, string) {}

func (Nop) RecordHandover(bool) {}
