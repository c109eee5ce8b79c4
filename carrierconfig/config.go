// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package carrierconfig holds the platform and carrier tunables the bearer
// core reads: MTU default, TCP buffer overrides, bandwidth table, retention
// policy. Values come from a YAML file and can be hot-reloaded.
package carrierconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/nextmn/go-dataconn/apn"
	"github.com/nextmn/go-dataconn/dcutil"
)

// Bandwidth source selector values.
const (
	BandwidthSourceModem         = "modem"
	BandwidthSourceCarrierConfig = "carrier_config"
)

// Bandwidth is a downstream/upstream pair in kbps.
type Bandwidth struct {
	DownstreamKbps int `yaml:"down"`
	UpstreamKbps   int `yaml:"up"`
}

// Config is the full carrier/platform configuration.
type Config struct {
	// MobileMTU is the platform default MTU applied when neither the call
	// response nor the APN profile sets one. 0 leaves the MTU unset.
	MobileMTU int `yaml:"mobile_mtu"`

	// MobileTCPBuffers overrides built-in TCP buffer sizes, entries in the
	// form "ratname:rmem_min,rmem_def,rmem_max,wmem_min,wmem_def,wmem_max".
	MobileTCPBuffers []string `yaml:"mobile_tcp_buffers"`

	// Bandwidths keys downstream/upstream kbps by RAT name ("LTE",
	// "NR_NSA", "NR_NSA_MMWAVE", ...).
	Bandwidths map[string]Bandwidth `yaml:"bandwidths"`

	// BandwidthSource selects who feeds capability bandwidths; modem
	// estimates are only applied when this is "modem".
	BandwidthSource string `yaml:"bandwidth_source"`

	// MeteredApnTypes lists the APN types billed by the carrier.
	MeteredApnTypes []string `yaml:"metered_apn_types"`

	// Disallowed APN types per transport, OR-ed into the disabled set when
	// the network agent is created.
	WWANDisallowedApnTypes []string `yaml:"wwan_disallowed_apn_types"`
	WLANDisallowedApnTypes []string `yaml:"wlan_disallowed_apn_types"`

	// PdpRejectRetentionEnabled keeps bearer settings across Inactive for
	// the causes below so a retry can reuse them.
	PdpRejectRetentionEnabled bool  `yaml:"pdp_reject_retention_enabled"`
	PdpRejectCauses           []int `yaml:"pdp_reject_causes"`

	// DNSCheckDisabled skips the fallback-DNS usability check.
	DNSCheckDisabled bool `yaml:"dns_check_disabled"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		BandwidthSource: BandwidthSourceCarrierConfig,
		MeteredApnTypes: []string{"default", "mms", "dun", "supl"},
		PdpRejectCauses: []int{
			29, // user authentication failed
			33, // service option not subscribed
			55, // multiple PDN to same APN not allowed
		},
	}
}

// Load reads and validates a YAML configuration file. Missing fields keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks entry formats that would otherwise fail silently at
// lookup time.
func (c *Config) Validate() error {
	for _, entry := range c.MobileTCPBuffers {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return fmt.Errorf("malformed tcp buffer override %q", entry)
		}
		if n := len(strings.Split(parts[1], ",")); n != 6 {
			return fmt.Errorf("tcp buffer override %q needs 6 values, has %d", entry, n)
		}
	}
	switch c.BandwidthSource {
	case "", BandwidthSourceModem, BandwidthSourceCarrierConfig:
	default:
		return fmt.Errorf("unknown bandwidth source %q", c.BandwidthSource)
	}
	if _, err := typesFromList(c.MeteredApnTypes); err != nil {
		return fmt.Errorf("metered_apn_types: %w", err)
	}
	if _, err := typesFromList(c.WWANDisallowedApnTypes); err != nil {
		return fmt.Errorf("wwan_disallowed_apn_types: %w", err)
	}
	if _, err := typesFromList(c.WLANDisallowedApnTypes); err != nil {
		return fmt.Errorf("wlan_disallowed_apn_types: %w", err)
	}
	return nil
}

// UseModemBandwidth reports whether modem link capacity estimates feed the
// exposed bandwidths.
func (c *Config) UseModemBandwidth() bool {
	return c.BandwidthSource == BandwidthSourceModem
}

// MeteredTypes returns the carrier metered set as a bitmask.
func (c *Config) MeteredTypes() apn.Type {
	t, _ := typesFromList(c.MeteredApnTypes)
	return t
}

// DisallowedApnTypes returns the disallowed set for a transport.
func (c *Config) DisallowedApnTypes(t dcutil.Transport) apn.Type {
	if t == dcutil.TransportWWAN {
		types, _ := typesFromList(c.WWANDisallowedApnTypes)
		return types
	}
	types, _ := typesFromList(c.WLANDisallowedApnTypes)
	return types
}

// IsPdpRejectCause reports whether cause qualifies for settings retention.
func (c *Config) IsPdpRejectCause(cause int) bool {
	if !c.PdpRejectRetentionEnabled {
		return false
	}
	for _, v := range c.PdpRejectCauses {
		if v == cause {
			return true
		}
	}
	return false
}

// TCPBufferOverride returns the override string for ratName, "" if none.
func (c *Config) TCPBufferOverride(ratName string) string {
	for _, entry := range c.MobileTCPBuffers {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) == 2 && parts[0] == ratName {
			return parts[1]
		}
	}
	return ""
}

// LinkBandwidths returns the configured pair for ratName and whether one
// exists.
func (c *Config) LinkBandwidths(ratName string) (Bandwidth, bool) {
	bw, ok := c.Bandwidths[ratName]
	return bw, ok
}

func typesFromList(list []string) (apn.Type, error) {
	return apn.TypesFromString(strings.Join(list, ","))
}
