// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package curve

import (
	"errors"
	"fmt"
	"math/big"

	group "github.com/bytemare/crypto"
)

// ErrNoGroup indicates that no prime-order group implementation exists for the curve.
var ErrNoGroup = errors.New("no group implementation for curve")

var groups = map[string]group.Group{
	Secp256k1: group.Secp256k1,
	P256:      group.P256Sha256,
	P384:      group.P384Sha384,
	P521:      group.P521Sha512,
}

// HasGroup returns whether a group backend is available for the named curve.
func HasGroup(name string) bool {
	n, err := CanonicalName(name)
	if err != nil {
		return false
	}

	g, ok := groups[n]

	return ok && g.Available()
}

// GroupEngine multiplies with the dedicated, constant-time implementation of a named curve.
type GroupEngine struct {
	curve *Curve
	group group.Group
}

// NewGroupEngine returns a GroupEngine for c. The curve must be one of the built-in curves with a group
// implementation, with unmodified domain parameters.
func NewGroupEngine(c *Curve) (*GroupEngine, error) {
	n, err := CanonicalName(c.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGroup, err)
	}

	g, ok := groups[n]
	if !ok || !g.Available() {
		return nil, fmt.Errorf("%w %q", ErrNoGroup, c.Name())
	}

	reference := named[n]()
	if !sameParams(reference, c.params) {
		return nil, fmt.Errorf("%w: parameters of %q differ from the standard ones", ErrNoGroup, c.Name())
	}

	return &GroupEngine{curve: c, group: g}, nil
}

// Curve implements Engine.
func (e *GroupEngine) Curve() *Curve {
	return e.curve
}

// MultiplyBase implements Engine.
func (e *GroupEngine) MultiplyBase(k []byte) (*Point, error) {
	if err := e.curve.checkScalar(k); err != nil {
		return nil, err
	}

	s := e.group.NewScalar()
	if err := s.Decode(k); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScalarRange, err)
	}

	defer s.Zero()

	p := e.group.Base().Multiply(s)
	if p.IsIdentity() {
		return nil, ErrPointAtInfinity
	}

	// The group encodes elements in SEC1 compressed form.
	enc := p.Encode()
	if len(enc) != 1+e.curve.FieldLength() || (enc[0] != 0x02 && enc[0] != 0x03) {
		return nil, fmt.Errorf("unexpected element encoding from group %d", e.group)
	}

	return e.curve.Decompress(new(big.Int).SetBytes(enc[1:]), enc[0] == 0x03)
}

func sameParams(a, b *Params) bool {
	return a.P.Cmp(b.P) == 0 &&
		a.A.Cmp(b.A) == 0 &&
		a.B.Cmp(b.B) == 0 &&
		a.Gx.Cmp(b.Gx) == 0 &&
		a.Gy.Cmp(b.Gy) == 0 &&
		a.N.Cmp(b.N) == 0 &&
		a.H == b.H
}
