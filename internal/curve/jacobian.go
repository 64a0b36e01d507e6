// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package curve

// This file operates, internally, on Jacobian coordinates. For a given (x, y) position on the curve, the Jacobian
// coordinates are (x1, y1, z1) where x = x1/z1² and y = y1/z1³. The point at infinity has z = 0.
//
// All arithmetic runs on safenum, and no branch or memory access depends on the value of a coordinate: special cases
// (infinity, doubling inside addition) are computed unconditionally and selected with CondAssign.

import (
	"math/big"

	"github.com/cronokirby/safenum"
)

// field holds the safenum form of the curve parameters used by the point arithmetic.
type field struct {
	p      *safenum.Modulus
	a      *safenum.Nat
	b      *safenum.Nat
	bits   int
	length int
}

func natFromBig(x *big.Int, bits int) *safenum.Nat {
	return new(safenum.Nat).SetBig(x, bits)
}

func newField(params *Params) *field {
	bits := params.P.BitLen()

	return &field{
		p:      safenum.ModulusFromNat(natFromBig(params.P, bits)),
		a:      natFromBig(params.A, bits),
		b:      natFromBig(params.B, bits),
		bits:   bits,
		length: params.FieldLength(),
	}
}

type jacobian struct {
	x, y, z *safenum.Nat
}

func (f *field) identity() *jacobian {
	return &jacobian{
		x: new(safenum.Nat).SetUint64(1),
		y: new(safenum.Nat).SetUint64(1),
		z: new(safenum.Nat).SetUint64(0),
	}
}

func (f *field) fromAffine(x, y *big.Int) *jacobian {
	return &jacobian{
		x: natFromBig(x, f.bits),
		y: natFromBig(y, f.bits),
		z: new(safenum.Nat).SetUint64(1),
	}
}

// toAffine reverses the Jacobian transform. The boolean is false for the point at infinity.
func (f *field) toAffine(j *jacobian) (x, y *big.Int, ok bool) {
	if j.z.EqZero() == 1 {
		return nil, nil, false
	}

	zinv := new(safenum.Nat).ModInverse(j.z, f.p)
	zinvsq := new(safenum.Nat).ModMul(zinv, zinv, f.p)

	xOut := new(safenum.Nat).ModMul(j.x, zinvsq, f.p)
	zinvsq.ModMul(zinvsq, zinv, f.p)
	yOut := new(safenum.Nat).ModMul(j.y, zinvsq, f.p)

	buf := make([]byte, f.length)
	x = new(big.Int).SetBytes(xOut.FillBytes(buf))
	y = new(big.Int).SetBytes(yOut.FillBytes(buf))

	wipe(zinv, zinvsq, xOut, yOut)

	return x, y, true
}

// wipe sets each value to zero.
func wipe(values ...*safenum.Nat) {
	for _, v := range values {
		if v != nil {
			v.SetUint64(0)
		}
	}
}

// clear zeroes the coordinates of j.
func (j *jacobian) clear() {
	if j != nil {
		wipe(j.x, j.y, j.z)
	}
}

// double returns 2*j, for any value of a.
func (f *field) double(j *jacobian) *jacobian {
	// See https://hyperelliptic.org/EFD/g1p/auto-shortw-jacobian.html#doubling-dbl-2007-bl
	p := f.p

	xx := new(safenum.Nat).ModMul(j.x, j.x, p)
	yy := new(safenum.Nat).ModMul(j.y, j.y, p)
	yyyy := new(safenum.Nat).ModMul(yy, yy, p)
	zz := new(safenum.Nat).ModMul(j.z, j.z, p)

	// s = 2*((x+yy)²-xx-yyyy)
	s := new(safenum.Nat).ModAdd(j.x, yy, p)
	s.ModMul(s, s, p)
	s.ModSub(s, xx, p)
	s.ModSub(s, yyyy, p)
	s.ModAdd(s, s, p)

	// m = 3*xx + a*zz²
	m := new(safenum.Nat).ModAdd(xx, xx, p)
	m.ModAdd(m, xx, p)
	azz := new(safenum.Nat).ModMul(zz, zz, p)
	azz.ModMul(azz, f.a, p)
	m.ModAdd(m, azz, p)

	// x3 = m² - 2*s
	x3 := new(safenum.Nat).ModMul(m, m, p)
	x3.ModSub(x3, s, p)
	x3.ModSub(x3, s, p)

	// y3 = m*(s-x3) - 8*yyyy
	y3 := new(safenum.Nat).ModSub(s, x3, p)
	y3.ModMul(y3, m, p)
	yyyy.ModAdd(yyyy, yyyy, p)
	yyyy.ModAdd(yyyy, yyyy, p)
	yyyy.ModAdd(yyyy, yyyy, p)
	y3.ModSub(y3, yyyy, p)

	// z3 = (y+z)² - yy - zz
	z3 := new(safenum.Nat).ModAdd(j.y, j.z, p)
	z3.ModMul(z3, z3, p)
	z3.ModSub(z3, yy, p)
	z3.ModSub(z3, zz, p)

	wipe(xx, yy, yyyy, zz, s, m, azz)

	return &jacobian{x: x3, y: y3, z: z3}
}

// add returns j1 + j2, handling the identity and j1 = j2 without branching.
func (f *field) add(j1, j2 *jacobian) *jacobian {
	// See https://hyperelliptic.org/EFD/g1p/auto-shortw-jacobian.html#addition-add-2007-bl
	p := f.p
	x3, y3, z3 := new(safenum.Nat), new(safenum.Nat), new(safenum.Nat)

	infinity1 := j1.z.EqZero()
	infinity2 := j2.z.EqZero()

	z1z1 := new(safenum.Nat).ModMul(j1.z, j1.z, p)
	z2z2 := new(safenum.Nat).ModMul(j2.z, j2.z, p)

	u1 := new(safenum.Nat).ModMul(j1.x, z2z2, p)
	u2 := new(safenum.Nat).ModMul(j2.x, z1z1, p)
	h := new(safenum.Nat).ModSub(u2, u1, p)
	xEqual := h.EqZero()
	i := new(safenum.Nat).ModAdd(h, h, p)
	i.ModMul(i, i, p)
	jj := new(safenum.Nat).ModMul(h, i, p)

	s1 := new(safenum.Nat).ModMul(j1.y, j2.z, p)
	s1.ModMul(s1, z2z2, p)
	s2 := new(safenum.Nat).ModMul(j2.y, j1.z, p)
	s2.ModMul(s2, z1z1, p)
	r := new(safenum.Nat).ModSub(s2, s1, p)
	yEqual := r.EqZero()
	r.ModAdd(r, r, p)
	v := new(safenum.Nat).ModMul(u1, i, p)

	x3.SetNat(r)
	x3.ModMul(x3, x3, p)
	x3.ModSub(x3, jj, p)
	x3.ModSub(x3, v, p)
	x3.ModSub(x3, v, p)

	y3.SetNat(r)
	v.ModSub(v, x3, p)
	y3.ModMul(y3, v, p)
	s1.ModMul(s1, jj, p)
	s1.ModAdd(s1, s1, p)
	y3.ModSub(y3, s1, p)

	z3.ModAdd(j1.z, j2.z, p)
	z3.ModMul(z3, z3, p)
	z3.ModSub(z3, z1z1, p)
	z3.ModSub(z3, z2z2, p)
	z3.ModMul(z3, h, p)

	// Equal inputs make the addition formula degenerate: use the doubling instead.
	doubled := f.double(j1)
	affineEqual := xEqual & yEqual
	x3.CondAssign(affineEqual, doubled.x)
	y3.CondAssign(affineEqual, doubled.y)
	z3.CondAssign(affineEqual, doubled.z)

	// If either point is the identity, everything above is garbage: select the other one.
	x3.CondAssign(infinity1, j2.x)
	y3.CondAssign(infinity1, j2.y)
	z3.CondAssign(infinity1, j2.z)

	x3.CondAssign(infinity2, j1.x)
	y3.CondAssign(infinity2, j1.y)
	z3.CondAssign(infinity2, j1.z)

	wipe(z1z1, z2z2, u1, u2, h, i, jj, s1, s2, r, v)
	doubled.clear()

	return &jacobian{x: x3, y: y3, z: z3}
}

// condSwap swaps a and b if swap is 1, in constant time.
func condSwap(swap safenum.Choice, a, b *jacobian) {
	for _, c := range [][2]*safenum.Nat{{a.x, b.x}, {a.y, b.y}, {a.z, b.z}} {
		t := new(safenum.Nat).SetNat(c[0])
		c[0].CondAssign(swap, c[1])
		c[1].CondAssign(swap, t)
		wipe(t)
	}
}

// ladder computes k*base with a Montgomery ladder over exactly bits iterations, where k is big-endian. The sequence of
// operations is the same for every k of that length. base is left untouched, and every intermediate register is
// zeroed once it is replaced. The caller must clear the result.
func (f *field) ladder(base *jacobian, k []byte, bits int) *jacobian {
	r0 := f.identity()
	r1 := &jacobian{
		x: new(safenum.Nat).SetNat(base.x),
		y: new(safenum.Nat).SetNat(base.y),
		z: new(safenum.Nat).SetNat(base.z),
	}

	for i := bits - 1; i >= 0; i-- {
		bit := safenum.Choice((k[len(k)-1-i/8] >> (uint(i) % 8)) & 1)

		condSwap(bit, r0, r1)
		sum := f.add(r0, r1)
		doubled := f.double(r0)
		r0.clear()
		r1.clear()
		r0, r1 = doubled, sum
		condSwap(bit, r0, r1)
	}

	r1.clear()

	return r0
}
