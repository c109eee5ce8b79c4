// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package dataconn

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dataconn/api"
	"github.com/nextmn/go-dataconn/dcutil"
)

// SetupResult classifies the outcome of a call setup response.
type SetupResult int

const (
	SetupSuccess SetupResult = iota
	SetupErrorRadioNotAvailable
	SetupErrorInvalidArg
	SetupErrorStale
	SetupErrorDataServiceError
)

func (s SetupResult) String() string {
	switch s {
	case SetupSuccess:
		return "SUCCESS"
	case SetupErrorRadioNotAvailable:
		return "ERROR_RADIO_NOT_AVAILABLE"
	case SetupErrorInvalidArg:
		return "ERROR_INVALID_ARG"
	case SetupErrorStale:
		return "ERROR_STALE"
	case SetupErrorDataServiceError:
		return "ERROR_DATA_SERVICE_SPECIFIC_ERROR"
	default:
		return "UNKNOWN"
	}
}

// buildLinkProperties translates a call setup response plus the APN profile
// and the system DNS fallback into validated link properties. On any error
// the returned properties are empty.
//
// fallbackDNS is the pair read from the platform for the response interface;
// entries may be empty.
func buildLinkProperties(response *api.DataCallResponse, profile *apn.Profile,
	fallbackDNS [2]string, dnsCheckDisabled bool, defaultMTU int) (api.LinkProperties, SetupResult) {
	var lp api.LinkProperties

	if response.Cause != api.FailNone {
		return api.LinkProperties{}, SetupErrorDataServiceError
	}

	if response.InterfaceName == "" {
		return api.LinkProperties{}, SetupErrorInvalidArg
	}
	lp.InterfaceName = response.InterfaceName

	for _, prefix := range response.Addresses {
		if !prefix.Addr().IsUnspecified() {
			lp.Addresses = append(lp.Addresses, prefix)
		}
	}
	if len(lp.Addresses) == 0 {
		return api.LinkProperties{}, SetupErrorInvalidArg
	}

	for _, dns := range response.DNSAddresses {
		if !dns.IsUnspecified() {
			lp.DNSServers = append(lp.DNSServers, dns)
		}
	}
	if len(lp.DNSServers) == 0 {
		if !fallbackDNSOk(fallbackDNS, profile, dnsCheckDisabled) {
			return api.LinkProperties{}, SetupErrorInvalidArg
		}
		for _, raw := range fallbackDNS {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return api.LinkProperties{}, SetupErrorInvalidArg
			}
			if !addr.IsUnspecified() {
				lp.DNSServers = append(lp.DNSServers, addr)
			}
		}
		if len(lp.DNSServers) == 0 {
			return api.LinkProperties{}, SetupErrorInvalidArg
		}
	}

	lp.PcscfAddresses = slices.Clone(response.PcscfAddresses)

	// A zero gateway is kept: it marks a point-to-point interface.
	for _, gw := range response.GatewayAddresses {
		lp.Routes = append(lp.Routes, api.Route{Gateway: gw})
	}

	switch {
	case response.MTU != dcutil.UnsetMTU:
		lp.MTU = response.MTU
	case profile != nil && profile.MTU != dcutil.UnsetMTU:
		lp.MTU = profile.MTU
	case defaultMTU != dcutil.UnsetMTU:
		lp.MTU = defaultMTU
	}

	return lp, SetupSuccess
}

// fallbackDNSOk guards against a modem race where DNS is reported as
// "0.0.0.0": such a fallback pair is unusable, unless the APN is MMS with an
// IP-literal proxy, where failing would prevent the default APN from coming
// back.
func fallbackDNSOk(fallbackDNS [2]string, profile *apn.Profile, dnsCheckDisabled bool) bool {
	if fallbackDNS[0] != dcutil.NullIPv4 || fallbackDNS[1] != dcutil.NullIPv4 || dnsCheckDisabled {
		return true
	}
	return profile != nil &&
		profile.TypeBitmask.Has(apn.TypeMMS) &&
		dcutil.IsIPLiteral(profile.MmsProxy)
}
