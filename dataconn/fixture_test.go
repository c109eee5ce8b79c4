// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"net/netip"
	"sync"
	"time"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// The fakes below implement the api collaborator interfaces. Tests drive the
// dispatcher synchronously: public bearer calls enqueue events, pump()
// drains the controller queue on the test goroutine.

type setupCall struct {
	accessNetwork dcutil.AccessNetwork
	profile       apn.DataProfile
	modemRoaming  bool
	allowRoaming  bool
	reason        api.RequestReason
	handoverLP    *api.LinkProperties
	reply         api.SetupReply
}

type deactivateCall struct {
	cid    int
	reason api.RequestReason
	reply  api.DeactivateReply
}

type keepaliveCall struct {
	cid      int
	handle   int
	interval time.Duration
	reply    api.KeepaliveReply
}

type fakeDataService struct {
	mu          sync.Mutex
	transport   dcutil.Transport
	setups      []setupCall
	deactivates []deactivateCall
	kaStarts    []keepaliveCall
	kaStops     []keepaliveCall
	linkObs     []api.LinkObserver
}

func (f *fakeDataService) Transport() dcutil.Transport { return f.transport }

func (f *fakeDataService) SetupDataCall(an dcutil.AccessNetwork, profile apn.DataProfile,
	modemRoaming, allowRoaming bool, reason api.RequestReason,
	handoverLP *api.LinkProperties, reply api.SetupReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups = append(f.setups, setupCall{
		accessNetwork: an,
		profile:       profile,
		modemRoaming:  modemRoaming,
		allowRoaming:  allowRoaming,
		reason:        reason,
		handoverLP:    handoverLP,
		reply:         reply,
	})
}

func (f *fakeDataService) DeactivateDataCall(cid int, reason api.RequestReason, reply api.DeactivateReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivates = append(f.deactivates, deactivateCall{cid: cid, reason: reason, reply: reply})
}

func (f *fakeDataService) StartNattKeepalive(cid int, _ []byte, interval time.Duration, reply api.KeepaliveReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kaStarts = append(f.kaStarts, keepaliveCall{cid: cid, interval: interval, reply: reply})
}

func (f *fakeDataService) StopNattKeepalive(handle int, reply api.KeepaliveReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kaStops = append(f.kaStops, keepaliveCall{handle: handle, reply: reply})
}

func (f *fakeDataService) RegisterLinkObserver(o api.LinkObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkObs = append(f.linkObs, o)
}

func (f *fakeDataService) UnregisterLinkObserver(o api.LinkObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, obs := range f.linkObs {
		if obs == o {
			f.linkObs = append(f.linkObs[:i], f.linkObs[i+1:]...)
			return
		}
	}
}

func (f *fakeDataService) lastSetup() setupCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setups[len(f.setups)-1]
}

func (f *fakeDataService) lastDeactivate() deactivateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deactivates[len(f.deactivates)-1]
}

type fakeAgent struct {
	mu                sync.Mutex
	owner             api.Bearer
	sentLinkProps     []api.LinkProperties
	sentCapabilities  []api.NetworkCapabilities
	sentInfos         []api.NetworkInfo
	sentScores        []int
	keepaliveEvents   map[int][]int
	acquires          int
	releases          int
}

func newFakeAgent(owner api.Bearer) *fakeAgent {
	return &fakeAgent{owner: owner, keepaliveEvents: make(map[int][]int)}
}

func (f *fakeAgent) SendLinkProperties(lp api.LinkProperties) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentLinkProps = append(f.sentLinkProps, lp)
}

func (f *fakeAgent) SendNetworkCapabilities(nc api.NetworkCapabilities) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentCapabilities = append(f.sentCapabilities, nc)
}

func (f *fakeAgent) SendNetworkInfo(ni api.NetworkInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentInfos = append(f.sentInfos, ni)
}

func (f *fakeAgent) SendNetworkScore(score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentScores = append(f.sentScores, score)
}

func (f *fakeAgent) OnSocketKeepaliveEvent(slot int, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keepaliveEvents[slot] = append(f.keepaliveEvents[slot], status)
}

func (f *fakeAgent) AcquireOwnership(owner api.Bearer, _ dcutil.Transport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = owner
	f.acquires++
}

func (f *fakeAgent) ReleaseOwnership(owner api.Bearer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner == owner {
		f.owner = nil
		f.releases++
	}
}

func (f *fakeAgent) Owner() api.Bearer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

func (f *fakeAgent) lastInfo() (api.NetworkInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sentInfos) == 0 {
		return api.NetworkInfo{}, false
	}
	return f.sentInfos[len(f.sentInfos)-1], true
}

func (f *fakeAgent) sawDetailedState(s api.DetailedState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, info := range f.sentInfos {
		if info.DetailedState == s {
			return true
		}
	}
	return false
}

type trackerNotification struct {
	kind string
	ctx  api.ApnContext
	cid  int
}

type fakeTracker struct {
	mu                 sync.Mutex
	dataEnabled        bool
	dataRoamingEnabled bool
	bearersByType      map[dcutil.Transport]api.Bearer
	notifications      []trackerNotification
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		dataEnabled:   true,
		bearersByType: make(map[dcutil.Transport]api.Bearer),
	}
}

func (f *fakeTracker) BearerByType(t dcutil.Transport, _ apn.Type) api.Bearer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bearersByType[t]
}

func (f *fakeTracker) DataEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataEnabled
}

func (f *fakeTracker) DataRoamingEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataRoamingEnabled
}

func (f *fakeTracker) NotifyDataSetupComplete(ctx api.ApnContext, cid int, _ api.RequestType) {
	f.record("setup-complete", ctx, cid)
}

func (f *fakeTracker) NotifyDataSetupCompleteError(ctx api.ApnContext, cid int, _ api.RequestType) {
	f.record("setup-error", ctx, cid)
}

func (f *fakeTracker) NotifyDisconnectDone(ctx api.ApnContext, cid int, _ api.RequestType) {
	f.record("disconnect-done", ctx, cid)
}

func (f *fakeTracker) record(kind string, ctx api.ApnContext, cid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, trackerNotification{kind: kind, ctx: ctx, cid: cid})
}

type fakeServiceState struct {
	mu                  sync.Mutex
	radioObs            []api.RadioObserver
	callObs             []api.CallObserver
	dataRegState        dcutil.DataRegState
	rat                 dcutil.RadioTech
	dataRoaming         bool
	modemRoaming        bool
	nrState             dcutil.NRState
	nrFrequency         dcutil.FrequencyRange
	carrierAggregation  bool
	nrCids              map[int]bool
	inService           bool
	concurrentVoiceData bool
	callIdle            bool
}

func newFakeServiceState() *fakeServiceState {
	return &fakeServiceState{
		dataRegState:        dcutil.DataRegStateInService,
		rat:                 dcutil.RadioTechLTE,
		nrCids:              make(map[int]bool),
		inService:           true,
		concurrentVoiceData: true,
		callIdle:            true,
	}
}

func (f *fakeServiceState) RegisterRadioObserver(o api.RadioObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.radioObs = append(f.radioObs, o)
}

func (f *fakeServiceState) UnregisterRadioObserver(o api.RadioObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, obs := range f.radioObs {
		if obs == o {
			f.radioObs = append(f.radioObs[:i], f.radioObs[i+1:]...)
			return
		}
	}
}

func (f *fakeServiceState) RegisterCallObserver(o api.CallObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callObs = append(f.callObs, o)
}

func (f *fakeServiceState) UnregisterCallObserver(o api.CallObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, obs := range f.callObs {
		if obs == o {
			f.callObs = append(f.callObs[:i], f.callObs[i+1:]...)
			return
		}
	}
}

func (f *fakeServiceState) DataRegState(dcutil.Transport) dcutil.DataRegState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataRegState
}

func (f *fakeServiceState) RadioTech(dcutil.Transport) dcutil.RadioTech {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rat
}

func (f *fakeServiceState) DataNetworkType() dcutil.RadioTech {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rat
}

func (f *fakeServiceState) DataRoaming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataRoaming
}

func (f *fakeServiceState) DataRoamingFromRegistration() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modemRoaming
}

func (f *fakeServiceState) NRState() dcutil.NRState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nrState
}

func (f *fakeServiceState) NRFrequencyRange() dcutil.FrequencyRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nrFrequency
}

func (f *fakeServiceState) UsingCarrierAggregation() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carrierAggregation
}

func (f *fakeServiceState) HasNRContext(cid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nrCids[cid]
}

func (f *fakeServiceState) InService() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inService
}

func (f *fakeServiceState) ConcurrentVoiceAndDataAllowed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.concurrentVoiceData
}

func (f *fakeServiceState) CallIdle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callIdle
}

type fakeApnContext struct {
	mu             sync.Mutex
	profile        *apn.Profile
	typeBitmask    apn.Type
	requests       []api.NetworkRequest
	restricted     bool
	suggestedDelay api.RetryDelay
	delaySet       bool
	reason         string
}

func (f *fakeApnContext) Profile() *apn.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile
}

func (f *fakeApnContext) TypeBitmask() apn.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typeBitmask
}

func (f *fakeApnContext) Requests() []api.NetworkRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeApnContext) HasRestrictedRequests(bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restricted
}

func (f *fakeApnContext) SetModemSuggestedDelay(delay api.RetryDelay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestedDelay = delay
	f.delaySet = true
}

func (f *fakeApnContext) SetReason(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reason = reason
}

// connectResult records a resolved completion.
type connectResult struct {
	cause api.FailCause
	cid   int
}

// harness bundles a controller with its collaborator fakes. The dispatcher
// goroutine is not started: pump() processes the queue deterministically.
type harness struct {
	ctrl    *Controller
	ds      *fakeDataService
	tracker *fakeTracker
	ss      *fakeServiceState
	agents  []*fakeAgent
}

func newHarness(transport dcutil.Transport, opts ...Option) *harness {
	h := &harness{
		ds:      &fakeDataService{transport: transport},
		tracker: newFakeTracker(),
		ss:      newFakeServiceState(),
	}
	factory := func(owner api.Bearer, _ dcutil.Transport, _ api.NetworkInfo,
		_ api.NetworkCapabilities, _ api.LinkProperties, _ int) api.NetworkAgent {
		agent := newFakeAgent(owner)
		h.agents = append(h.agents, agent)
		return agent
	}
	h.ctrl = NewController(factory, opts...)
	return h
}

func (h *harness) pump() {
	h.ctrl.drain()
}

func (h *harness) newBearer(id int) *Bearer {
	return h.ctrl.NewBearer(id, h.ds, h.tracker, h.ss)
}

func (h *harness) lastAgent() *fakeAgent {
	return h.agents[len(h.agents)-1]
}

func defaultProfile() *apn.Profile {
	return &apn.Profile{
		EntryName:   "carrier",
		Name:        "internet.example",
		TypeBitmask: apn.TypeDefault | apn.TypeSUPL,
		Protocol:    apn.ProtocolIPv4v6,
	}
}

func internetContext() *fakeApnContext {
	return &fakeApnContext{
		profile:     defaultProfile(),
		typeBitmask: apn.TypeDefault,
		requests: []api.NetworkRequest{
			{Capabilities: []api.Capability{api.CapInternet}},
		},
	}
}

func successResponse(cid int) *api.DataCallResponse {
	return &api.DataCallResponse{
		Cid:           cid,
		InterfaceName: "rmnet0",
		Addresses:     []netip.Prefix{netip.MustParsePrefix("10.0.0.2/24")},
		DNSAddresses:  []netip.Addr{netip.MustParseAddr("8.8.8.8")},
		GatewayAddresses: []netip.Addr{
			netip.MustParseAddr("10.0.0.1"),
		},
		MTU: 1500,
	}
}

// bringUpActive drives a bearer to Active through ctx and returns the
// completion results observed so far.
func (h *harness) bringUpActive(b *Bearer, ctx *fakeApnContext, cid int) *[]connectResult {
	results := &[]connectResult{}
	b.BringUp(ctx, 1, dcutil.RadioTechLTE, func(cause api.FailCause, gotCid int, _ api.RequestType) {
		*results = append(*results, connectResult{cause: cause, cid: gotCid})
	}, 1, api.RequestTypeNormal, 1, true)
	h.pump()
	h.ds.lastSetup().reply(api.ResultSuccess, successResponse(cid))
	h.pump()
	return results
}
