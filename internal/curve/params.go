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
)

const primalityRounds = 32

var (
	// ErrInvalidParams indicates malformed curve domain parameters.
	ErrInvalidParams = errors.New("invalid curve domain parameters")

	errNilParam       = errors.New("missing parameter")
	errFieldNotPrime  = errors.New("field order is not an odd prime")
	errOrderNotPrime  = errors.New("group order is not an odd prime")
	errBitSize        = errors.New("bit size does not match the field order")
	errCoefficient    = errors.New("curve coefficient is not a field element")
	errSingular       = errors.New("curve is singular")
	errBaseNotOnCurve = errors.New("base point is not on the curve")
	errCofactor       = errors.New("invalid cofactor")
	errOrderTooLarge  = errors.New("group order exceeds the field size")
	errBaseOrder      = errors.New("base point does not have the announced order")
)

// Params holds the domain parameters of a short Weierstrass curve y² = x³ + ax + b over GF(P), with a base point
// (Gx, Gy) of prime order N and cofactor H. Koblitz curves are the case A = 0.
type Params struct {
	P       *big.Int // the order of the underlying field
	A       *big.Int // the linear coefficient of the curve equation
	B       *big.Int // the constant of the curve equation
	Gx, Gy  *big.Int // (x,y) of the base point
	N       *big.Int // the order of the base point
	Name    string   // the canonical name of the curve
	H       int      // the cofactor
	BitSize int      // the size of the underlying field
}

// Copy returns a deep copy of the parameters.
func (p *Params) Copy() *Params {
	cp := func(x *big.Int) *big.Int {
		if x == nil {
			return nil
		}

		return new(big.Int).Set(x)
	}

	return &Params{
		P:       cp(p.P),
		A:       cp(p.A),
		B:       cp(p.B),
		Gx:      cp(p.Gx),
		Gy:      cp(p.Gy),
		N:       cp(p.N),
		Name:    p.Name,
		H:       p.H,
		BitSize: p.BitSize,
	}
}

// FieldLength returns the byte length of a field element.
func (p *Params) FieldLength() int {
	return (p.BitSize + 7) / 8
}

// ScalarLength returns the byte length of a scalar.
func (p *Params) ScalarLength() int {
	return (p.N.BitLen() + 7) / 8
}

// isOnCurve reports whether (x, y) satisfies the curve equation. Coordinates are public, so this runs on math/big.
func (p *Params) isOnCurve(x, y *big.Int) bool {
	if x.Sign() < 0 || x.Cmp(p.P) >= 0 || y.Sign() < 0 || y.Cmp(p.P) >= 0 {
		return false
	}

	y2 := new(big.Int).Mul(y, y)
	y2.Mod(y2, p.P)

	return p.polynomial(x).Cmp(y2) == 0
}

// polynomial returns x³ + ax + b mod P.
func (p *Params) polynomial(x *big.Int) *big.Int {
	x3 := new(big.Int).Mul(x, x)
	x3.Mul(x3, x)

	ax := new(big.Int).Mul(p.A, x)
	x3.Add(x3, ax)
	x3.Add(x3, p.B)

	return x3.Mod(x3, p.P)
}

// validate checks the parameters' structure. The order of the base point is verified separately, once an engine exists.
func (p *Params) validate() error {
	for name, v := range map[string]*big.Int{"P": p.P, "A": p.A, "B": p.B, "Gx": p.Gx, "Gy": p.Gy, "N": p.N} {
		if v == nil {
			return fmt.Errorf("%w: %w %s", ErrInvalidParams, errNilParam, name)
		}
	}

	if p.P.Bit(0) != 1 || !p.P.ProbablyPrime(primalityRounds) {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errFieldNotPrime)
	}

	if p.P.BitLen() != p.BitSize {
		return fmt.Errorf("%w: %w (%d != %d)", ErrInvalidParams, errBitSize, p.BitSize, p.P.BitLen())
	}

	if p.N.Bit(0) != 1 || !p.N.ProbablyPrime(primalityRounds) {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errOrderNotPrime)
	}

	if p.N.BitLen() > p.BitSize+1 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errOrderTooLarge)
	}

	if p.H < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errCofactor)
	}

	for _, c := range []*big.Int{p.A, p.B} {
		if c.Sign() < 0 || c.Cmp(p.P) >= 0 {
			return fmt.Errorf("%w: %w", ErrInvalidParams, errCoefficient)
		}
	}

	// 4a³ + 27b² ≠ 0 mod P
	a3 := new(big.Int).Exp(p.A, big.NewInt(3), p.P)
	a3.Mul(a3, big.NewInt(4))

	b2 := new(big.Int).Exp(p.B, big.NewInt(2), p.P)
	b2.Mul(b2, big.NewInt(27))

	if a3.Add(a3, b2).Mod(a3, p.P).Sign() == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errSingular)
	}

	if !p.isOnCurve(p.Gx, p.Gy) {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errBaseNotOnCurve)
	}

	return nil
}
