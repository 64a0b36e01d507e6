// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package curve

import "math/big"

// Point is an affine curve point. The zero value is the point at infinity. Points are public values.
type Point struct {
	x, y *big.Int
}

// IsIdentity returns whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p == nil || p.x == nil || p.y == nil
}

// X returns a copy of the x-coordinate, or nil for the identity.
func (p *Point) X() *big.Int {
	if p.IsIdentity() {
		return nil
	}

	return new(big.Int).Set(p.x)
}

// Y returns a copy of the y-coordinate, or nil for the identity.
func (p *Point) Y() *big.Int {
	if p.IsIdentity() {
		return nil
	}

	return new(big.Int).Set(p.y)
}

// Copy returns a deep copy of p.
func (p *Point) Copy() *Point {
	if p.IsIdentity() {
		return &Point{}
	}

	return &Point{x: new(big.Int).Set(p.x), y: new(big.Int).Set(p.y)}
}

// Equal returns whether p and q are the same point.
func (p *Point) Equal(q *Point) bool {
	if p.IsIdentity() || q.IsIdentity() {
		return p.IsIdentity() == q.IsIdentity()
	}

	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}
