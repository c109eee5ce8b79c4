// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package apn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypesFromString(t *testing.T) {
	got, err := TypesFromString("default, mms ,supl")
	require.NoError(t, err)
	assert.Equal(t, TypeDefault|TypeMMS|TypeSUPL, got)

	got, err = TypesFromString("*")
	require.NoError(t, err)
	assert.Equal(t, TypeAll, got)

	got, err = TypesFromString("")
	require.NoError(t, err)
	assert.Equal(t, TypeNone, got)

	_, err = TypesFromString("default,bogus")
	assert.Error(t, err)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "default,mms", (TypeDefault | TypeMMS).String())
	assert.Equal(t, "*", TypeAll.String())
	assert.Equal(t, "", TypeNone.String())
}

func TestTypeHas(t *testing.T) {
	mask := TypeDefault | TypeSUPL
	assert.True(t, mask.Has(TypeDefault))
	assert.True(t, mask.Has(TypeSUPL))
	assert.True(t, mask.Has(TypeDefault|TypeSUPL))
	assert.False(t, mask.Has(TypeMMS))
	assert.False(t, mask.Has(TypeNone))
}

func TestCanHandleType(t *testing.T) {
	p := &Profile{TypeBitmask: TypeDefault | TypeSUPL}
	assert.True(t, p.CanHandleType(TypeDefault))
	assert.True(t, p.CanHandleType(TypeSUPL))
	assert.False(t, p.CanHandleType(TypeIMS))
	assert.False(t, p.CanHandleType(TypeNone))

	all := &Profile{TypeBitmask: TypeAll}
	assert.True(t, all.CanHandleType(TypeDUN))
	assert.False(t, all.CanHandleType(TypeEmergency))

	var nilProfile *Profile
	assert.False(t, nilProfile.CanHandleType(TypeDefault))
}

func TestMeteredBy(t *testing.T) {
	metered := TypeDefault | TypeMMS | TypeDUN | TypeSUPL
	assert.True(t, (&Profile{TypeBitmask: TypeDefault | TypeIMS}).MeteredBy(metered))
	assert.False(t, (&Profile{TypeBitmask: TypeIMS}).MeteredBy(metered))
	assert.True(t, IsMeteredType(TypeMMS, metered))
	assert.False(t, IsMeteredType(TypeCBS, metered))
}

func TestNewDataProfile(t *testing.T) {
	p := &Profile{
		Name:        "internet.example",
		TypeBitmask: TypeDefault,
		Protocol:    ProtocolIPv4v6,
		AuthType:    AuthCHAP,
		MTU:         1400,
	}
	dp := NewDataProfile(p, 3, true)
	assert.Equal(t, 3, dp.ProfileID)
	assert.Equal(t, "internet.example", dp.APN)
	assert.Equal(t, ProtocolIPv4v6, dp.Protocol)
	assert.Equal(t, AuthCHAP, dp.AuthType)
	assert.Equal(t, 1400, dp.MTU)
	assert.True(t, dp.Preferred)
}
