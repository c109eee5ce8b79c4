// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/nextmn/go-dataconn/carrierconfig"
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Controller owns the shared dispatcher and the bearer registry. All bearer
// work runs on its single dispatcher goroutine, so bearers need no internal
// locking between each other.
type Controller struct {
	agentFactory api.NetworkAgentFactory
	metrics      api.MetricsRecorder
	cfg          *carrierconfig.Reloadable
	systemDNS    func(iface string) [2]string

	mu          sync.RWMutex
	bearers     map[int]*Bearer
	activeByCid map[int]*Bearer

	qmu   sync.Mutex
	queue []queuedEvent
	wake  chan struct{}

	instance atomic.Int32
	quit     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

type queuedEvent struct {
	bearer *Bearer
	ev     event
}

// Option configures a Controller.
type Option func(*Controller)

// WithCarrierConfig wires a (possibly hot-reloaded) carrier configuration.
func WithCarrierConfig(cfg *carrierconfig.Reloadable) Option {
	return func(c *Controller) { c.cfg = cfg }
}

// WithMetrics wires a metrics recorder.
func WithMetrics(m api.MetricsRecorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSystemDNS wires the platform lookup for the per-interface fallback
// DNS pair used when the modem reports none.
func WithSystemDNS(fn func(iface string) [2]string) Option {
	return func(c *Controller) { c.systemDNS = fn }
}

// NewController creates a controller. agentFactory builds the upstream
// network agents when bearers activate.
func NewController(agentFactory api.NetworkAgentFactory, opts ...Option) *Controller {
	c := &Controller{
		agentFactory: agentFactory,
		metrics:      nopMetrics{},
		cfg:          carrierconfig.NewStatic(nil),
		systemDNS:    func(string) [2]string { return [2]string{} },
		bearers:      make(map[int]*Bearer),
		activeByCid:  make(map[int]*Bearer),
		wake:         make(chan struct{}, 1),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the dispatcher goroutine.
func (c *Controller) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run()
}

// Stop shuts the dispatcher down; queued events are dropped.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
	})
	if c.started.Load() {
		<-c.done
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case <-c.wake:
			c.drain()
		}
	}
}

func (c *Controller) drain() {
	for {
		c.qmu.Lock()
		if len(c.queue) == 0 {
			c.qmu.Unlock()
			return
		}
		q := c.queue[0]
		c.queue = c.queue[1:]
		c.qmu.Unlock()

		q.bearer.deliver(q.ev)
	}
}

// post enqueues an event for a bearer. The queue is unbounded so handlers
// can post follow-up events without blocking the dispatcher.
func (c *Controller) post(b *Bearer, ev event) {
	select {
	case <-c.quit:
		logrus.WithFields(logrus.Fields{
			"bearer": b.name, "event": ev.kind,
		}).Debug("Dropping event, controller stopped")
		return
	default:
	}
	c.qmu.Lock()
	c.queue = append(c.queue, queuedEvent{bearer: b, ev: ev})
	c.qmu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) config() *carrierconfig.Config {
	return c.cfg.Get()
}

// NewBearer creates and registers a bearer on the given collaborators. The
// name combines the transport ("C" for cellular WWAN, "I" for IWLAN) with a
// per-controller instance number.
func (c *Controller) NewBearer(id int, dataService api.DataService,
	tracker api.Tracker, serviceState api.ServiceState) *Bearer {
	transport := dataService.Transport()
	prefix := "C"
	if transport == dcutil.TransportWLAN {
		prefix = "I"
	}
	name := fmt.Sprintf("DC-%s-%d", prefix, c.instance.Add(1))

	b := &Bearer{
		ctrl:         c,
		dataService:  dataService,
		tracker:      tracker,
		serviceState: serviceState,
		metrics:      c.metrics,
		id:           id,
		name:         name,
		transport:    transport,
		current:      inactiveState,
		tag:          0,
		cid:          -1,
		subID:        dcutil.InvalidSubscriptionID,
		rilRat:       serviceState.RadioTech(transport),
		dataRegState: serviceState.DataRegState(transport),
		consumers:    make(map[api.ApnContext]*ConnectionParams),
		networkInfo: api.NetworkInfo{
			DetailedState: api.DetailedStateIdle,
			NetworkType:   serviceState.DataNetworkType(),
			Roaming:       serviceState.DataRoaming(),
			Available:     true,
		},
		handoverState: dcutil.HandoverStateIdle,
		score:         otherConnectionScore,
	}
	b.radioObs = &radioObserver{b: b}
	b.callObs = &callObserver{b: b}
	b.linkObs = &linkObserver{b: b}

	serviceState.RegisterRadioObserver(b.radioObs)

	c.mu.Lock()
	c.bearers[id] = b
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"bearer": name, "id": id, "transport": transport,
	}).Debug("Data connection created")
	return b
}

// Bearer returns the bearer registered under id, nil if none.
func (c *Controller) Bearer(id int) *Bearer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearers[id]
}

// ActiveBearerByCid returns the active bearer holding cid, nil if none.
// cids are unique across transports.
func (c *Controller) ActiveBearerByCid(cid int) *Bearer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeByCid[cid]
}

func (c *Controller) addActiveCid(b *Bearer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeByCid[b.cid] = b
}

func (c *Controller) removeActiveCid(b *Bearer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeByCid[b.cid] == b {
		delete(c.activeByCid, b.cid)
	}
}

func (c *Controller) removeBearer(b *Bearer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bearers[b.id] == b {
		delete(c.bearers, b.id)
	}
}

// nopMetrics is the default recorder when none is wired.
type nopMetrics struct{}

func (nopMetrics) RecordStateChange(string, dcutil.Transport, string) {}

func (nopMetrics) RecordSetupResult(dcutil.Transport, api.FailCause) {}

func (nopMetrics) RecordDataCallConnected(dcutil.Transport) {}

func (nopMetrics) RecordDataCallDisconnected(dcutil.Transport, string) {}

func (nopMetrics) RecordHandover(bool) {}
