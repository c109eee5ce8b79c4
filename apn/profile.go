// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package apn

// Protocol selects the PDP address family requested from the network.
type Protocol int

const (
	ProtocolIP Protocol = iota
	ProtocolIPv6
	ProtocolIPv4v6
	ProtocolPPP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolIP:
		return "IP"
	case ProtocolIPv6:
		return "IPV6"
	case ProtocolIPv4v6:
		return "IPV4V6"
	case ProtocolPPP:
		return "PPP"
	default:
		return "UNKNOWN"
	}
}

// AuthType is the PDP authentication scheme.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthPAP
	AuthCHAP
	AuthPAPOrCHAP
)

// Profile is one APN configuration entry: the named mobile-data profile a
// bearer serves.
type Profile struct {
	EntryName       string
	Name            string // the APN sent to the network
	Proxy           string
	ProxyPort       int
	MmsProxy        string
	MmsProxyPort    int
	TypeBitmask     Type
	Protocol        Protocol
	RoamingProtocol Protocol
	AuthType        AuthType
	User            string
	Password        string
	MTU             int // 0 when unset
}

// CanHandleType reports whether the profile serves the requested type
// bitmask: every requested bit must be present in the profile's bitmask.
// A nil profile or a TypeNone request is never served.
func (p *Profile) CanHandleType(requested Type) bool {
	if p == nil || requested == TypeNone {
		return false
	}
	return p.TypeBitmask&requested == requested
}

// MeteredBy reports whether the profile counts as metered given the carrier
// list of metered types: it is metered as soon as one of its types is.
func (p *Profile) MeteredBy(metered Type) bool {
	if p == nil {
		return false
	}
	return p.TypeBitmask&metered != 0
}

// IsMeteredType reports whether a single requested type is in the carrier
// metered set.
func IsMeteredType(t, metered Type) bool {
	return t&metered != 0
}

// DataProfile is the subset of a Profile handed to the data service on call
// setup, plus the tracker-assigned profile id.
type DataProfile struct {
	ProfileID       int
	APN             string
	Protocol        Protocol
	RoamingProtocol Protocol
	AuthType        AuthType
	User            string
	Password        string
	TypeBitmask     Type
	MTU             int
	Preferred       bool
}

// NewDataProfile builds the data profile for a setup request.
func NewDataProfile(p *Profile, profileID int, preferred bool) DataProfile {
	return DataProfile{
		ProfileID:       profileID,
		APN:             p.Name,
		Protocol:        p.Protocol,
		RoamingProtocol: p.RoamingProtocol,
		AuthType:        p.AuthType,
		User:            p.User,
		Password:        p.Password,
		TypeBitmask:     p.TypeBitmask,
		MTU:             p.MTU,
		Preferred:       preferred,
	}
}
