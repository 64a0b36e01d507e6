// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package curve

import (
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
)

// ErrUnknownCurve indicates that no curve is registered under the requested name.
var ErrUnknownCurve = errors.New("unknown curve name")

// Canonical names of the built-in curves.
const (
	Secp256k1 = "secp256k1"
	Secp192k1 = "secp192k1"
	Secp224k1 = "secp224k1"
	P256      = "secp256r1"
	P384      = "secp384r1"
	P521      = "secp521r1"
)

var aliases = map[string]string{
	"k256":       Secp256k1,
	"k192":       Secp192k1,
	"k224":       Secp224k1,
	"p-256":      P256,
	"p256":       P256,
	"prime256v1": P256,
	"p-384":      P384,
	"p384":       P384,
	"p-521":      P521,
	"p521":       P521,
}

var named = map[string]func() *Params{
	Secp256k1: secp256k1,
	Secp192k1: secp192k1,
	Secp224k1: secp224k1,
	P256:      func() *Params { return fromNIST(P256, elliptic.P256()) },
	P384:      func() *Params { return fromNIST(P384, elliptic.P384()) },
	P521:      func() *Params { return fromNIST(P521, elliptic.P521()) },
}

// CanonicalName resolves aliases and case, and returns the canonical name of a built-in curve.
func CanonicalName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}

	if _, ok := named[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}

	return n, nil
}

// Named returns a fresh copy of the domain parameters of a built-in curve.
func Named(name string) (*Params, error) {
	n, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}

	return named[n](), nil
}

// Names returns the sorted canonical names of the built-in curves.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

func fromHex(s string) *big.Int {
	r, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex in source file: " + s)
	}

	return r
}

// secp256k1 is the 256-bit Koblitz curve from SEC 2, section 2.4.1.
func secp256k1() *Params {
	return &Params{
		Name:    Secp256k1,
		P:       fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F"),
		A:       big.NewInt(0),
		B:       big.NewInt(7),
		Gx:      fromHex("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798"),
		Gy:      fromHex("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8"),
		N:       fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141"),
		H:       1,
		BitSize: 256,
	}
}

// secp192k1 is the 192-bit Koblitz curve from SEC 2, section 2.2.1.
func secp192k1() *Params {
	return &Params{
		Name:    Secp192k1,
		P:       fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFEE37"),
		A:       big.NewInt(0),
		B:       big.NewInt(3),
		Gx:      fromHex("DB4FF10EC057E9AE26B07D0280B7F4341DA5D1B1EAE06C7D"),
		Gy:      fromHex("9B2F2F6D9C5628A7844163D015BE86344082AA88D95E2F9D"),
		N:       fromHex("FFFFFFFFFFFFFFFFFFFFFFFE26F2FC170F69466A74DEFD8D"),
		H:       1,
		BitSize: 192,
	}
}

// secp224k1 is the 224-bit Koblitz curve from SEC 2, section 2.3.1. Its order is one bit longer than the field.
func secp224k1() *Params {
	return &Params{
		Name:    Secp224k1,
		P:       fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFE56D"),
		A:       big.NewInt(0),
		B:       big.NewInt(5),
		Gx:      fromHex("A1455B334DF099DF30FC28A169A467E9E47075A90F7E650EB6B7A45C"),
		Gy:      fromHex("7E089FED7FBA344282CAFBD6F7E319F7C0B0BD59E2CA4BDB556D61A5"),
		N:       fromHex("010000000000000000000000000001DCE8D2EC6184CAF0A971769FB1F7"),
		H:       1,
		BitSize: 224,
	}
}

// fromNIST converts the parameters of a NIST prime curve, for which a = -3.
func fromNIST(name string, c elliptic.Curve) *Params {
	p := c.Params()

	return &Params{
		Name:    name,
		P:       new(big.Int).Set(p.P),
		A:       new(big.Int).Sub(p.P, big.NewInt(3)),
		B:       new(big.Int).Set(p.B),
		Gx:      new(big.Int).Set(p.Gx),
		Gy:      new(big.Int).Set(p.Gy),
		N:       new(big.Int).Set(p.N),
		H:       1,
		BitSize: p.BitSize,
	}
}
