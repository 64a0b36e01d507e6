// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package curve implements scalar multiplication on short Weierstrass curves given by injected domain parameters.
package curve

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/safenum"
)

var (
	// ErrPointAtInfinity indicates that a multiplication yielded the identity element.
	ErrPointAtInfinity = errors.New("point at infinity")

	// ErrScalarRange indicates a scalar of the wrong length, or outside [1, N-1].
	ErrScalarRange = errors.New("scalar out of range")

	// ErrNotOnCurve indicates coordinates that do not satisfy the curve equation.
	ErrNotOnCurve = errors.New("point is not on the curve")

	// ErrNoSquareRoot indicates an x-coordinate for which no point exists.
	ErrNoSquareRoot = errors.New("x-coordinate has no matching point")
)

// Engine is the interface implemented by scalar multiplication backends.
type Engine interface {
	// Curve returns the curve the engine operates on.
	Curve() *Curve

	// MultiplyBase returns k*G, where k is a big-endian scalar of Curve().ScalarLength() bytes in [1, N-1].
	MultiplyBase(k []byte) (*Point, error)
}

// Curve is a validated short Weierstrass curve. It is immutable and safe for concurrent use.
type Curve struct {
	params *Params
	field  *field
	order  *safenum.Modulus
	base   *Point
}

// New validates the domain parameters and returns the corresponding curve.
func New(params *Params) (*Curve, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, errNilParam)
	}

	params = params.Copy()
	if err := params.validate(); err != nil {
		return nil, err
	}

	c := &Curve{
		params: params,
		field:  newField(params),
		order:  safenum.ModulusFromNat(natFromBig(params.N, params.N.BitLen())),
		base:   &Point{x: params.Gx, y: params.Gy},
	}

	// n*G must be the identity, or N is not the order of G.
	n := params.N.FillBytes(make([]byte, params.ScalarLength()))
	if _, _, ok := c.field.toAffine(c.field.ladder(c.field.fromAffine(params.Gx, params.Gy), n, params.N.BitLen())); ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, errBaseOrder)
	}

	return c, nil
}

// NewNamed returns the built-in curve registered under name.
func NewNamed(name string) (*Curve, error) {
	params, err := Named(name)
	if err != nil {
		return nil, err
	}

	return New(params)
}

// Params returns a copy of the curve's domain parameters.
func (c *Curve) Params() *Params {
	return c.params.Copy()
}

// Name returns the name of the curve.
func (c *Curve) Name() string {
	return c.params.Name
}

// Order returns a copy of the order of the base point.
func (c *Curve) Order() *big.Int {
	return new(big.Int).Set(c.params.N)
}

// FieldLength returns the byte length of a coordinate.
func (c *Curve) FieldLength() int {
	return c.params.FieldLength()
}

// ScalarLength returns the byte length of a scalar.
func (c *Curve) ScalarLength() int {
	return c.params.ScalarLength()
}

// Base returns the base point.
func (c *Curve) Base() *Point {
	return c.base.Copy()
}

// Curve implements Engine.
func (c *Curve) Curve() *Curve {
	return c
}

// checkScalar verifies 1 <= k <= N-1 in constant time.
func (c *Curve) checkScalar(k []byte) error {
	if len(k) != c.ScalarLength() {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrScalarRange, c.ScalarLength(), len(k))
	}

	s := new(safenum.Nat).SetBytes(k)
	_, _, lt := s.CmpMod(c.order)

	if (lt & (1 ^ s.EqZero())) != 1 {
		return ErrScalarRange
	}

	return nil
}

// Multiply returns k*base, where k is a big-endian scalar in [1, N-1]. The running time depends only on the curve, not
// on the value of k. It fails with ErrPointAtInfinity if the result is the identity.
func (c *Curve) Multiply(base *Point, k []byte) (*Point, error) {
	if base == nil || base.IsIdentity() {
		return nil, ErrPointAtInfinity
	}

	if !c.params.isOnCurve(base.x, base.y) {
		return nil, ErrNotOnCurve
	}

	if err := c.checkScalar(k); err != nil {
		return nil, err
	}

	r := c.field.ladder(c.field.fromAffine(base.x, base.y), k, c.params.N.BitLen())
	defer r.clear()

	x, y, ok := c.field.toAffine(r)
	if !ok {
		return nil, ErrPointAtInfinity
	}

	return &Point{x: x, y: y}, nil
}

// MultiplyBase returns k*G.
func (c *Curve) MultiplyBase(k []byte) (*Point, error) {
	return c.Multiply(c.base, k)
}

// NewPoint returns the point (x, y), if it is on the curve.
func (c *Curve) NewPoint(x, y *big.Int) (*Point, error) {
	if x == nil || y == nil || !c.params.isOnCurve(x, y) {
		return nil, ErrNotOnCurve
	}

	return &Point{x: new(big.Int).Set(x), y: new(big.Int).Set(y)}, nil
}

// IsOnCurve reports whether (x, y) is a point on the curve.
func (c *Curve) IsOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil {
		return false
	}

	return c.params.isOnCurve(x, y)
}

// Decompress returns the point with the given x-coordinate and y parity.
func (c *Curve) Decompress(x *big.Int, odd bool) (*Point, error) {
	p := c.params.P
	if x == nil || x.Sign() < 0 || x.Cmp(p) >= 0 {
		return nil, ErrNotOnCurve
	}

	y := new(big.Int).ModSqrt(c.params.polynomial(x), p)
	if y == nil {
		return nil, ErrNoSquareRoot
	}

	if (y.Bit(0) == 1) != odd {
		y.Sub(p, y).Mod(y, p)
	}

	// y = 0 has a single parity.
	if (y.Bit(0) == 1) != odd {
		return nil, ErrNoSquareRoot
	}

	return c.NewPoint(x, y)
}
