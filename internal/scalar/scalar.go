// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package scalar reduces stretched key material into a private scalar in [1, N-1].
package scalar

import (
	"crypto"
	"errors"
	"fmt"
	"math/big"

	"github.com/bytemare/hash"
	"github.com/cronokirby/safenum"

	"github.com/bytemare/regkey/internal"
	"github.com/bytemare/regkey/internal/encoding"
)

var (
	// ErrPolicy indicates an unknown reduction policy.
	ErrPolicy = errors.New("unknown scalar reduction policy")

	// ErrOrder indicates an invalid group order.
	ErrOrder = errors.New("invalid group order")

	// ErrShortInput indicates that the input has fewer bytes than a scalar.
	ErrShortInput = errors.New("input is shorter than a scalar")

	// ErrDegenerate indicates that the reduction produced zero.
	ErrDegenerate = errors.New("degenerate scalar")

	// ErrExhausted indicates that rejection sampling found no candidate in range.
	ErrExhausted = errors.New("rejection sampling exhausted its candidates")
)

// Policy selects how the stretched bytes are mapped onto [1, N-1].
type Policy byte

const (
	// Modular computes (int(bytes) mod (N-1)) + 1. The result is slightly biased when the input is not much longer
	// than N: the relative bias is at most 2^-(8*len(bytes) - bits(N)).
	Modular Policy = 1 + iota

	// Rejection expands the input into a sequence of candidates with HKDF-SHA256 and takes the first one in
	// [1, N-1]. The result is unbiased.
	Rejection
)

const (
	// RejectionCandidates is the number of candidates drawn by the Rejection policy. Even for the worst order
	// (2^k + 1), the probability that all of them fall out of range is 2^-64.
	RejectionCandidates = 64

	rejectionInfo = "regkey scalar"
)

// String returns the name of the policy.
func (p Policy) String() string {
	switch p {
	case Modular:
		return "modular"
	case Rejection:
		return "rejection"
	default:
		return fmt.Sprintf("Policy(%d)", byte(p))
	}
}

// Available returns whether p is a known policy.
func (p Policy) Available() bool {
	return p == Modular || p == Rejection
}

// Scalar is a secret private scalar, held as a big-endian byte string of fixed length.
type Scalar struct {
	b []byte
}

// Bytes returns a copy of the big-endian encoding of the scalar. The caller owns it and must clear it.
func (s *Scalar) Bytes() []byte {
	out := make([]byte, len(s.b))
	copy(out, s.b)

	return out
}

// Clear zeroes the scalar.
func (s *Scalar) Clear() {
	if s == nil {
		return
	}

	internal.ClearSlice(&s.b)
}

// Reducer maps byte strings to scalars for one group order. It is immutable and safe for concurrent use.
type Reducer struct {
	order     *safenum.Modulus
	orderLess *safenum.Modulus
	kdf       *hash.Fixed
	bits      int
	length    int
	policy    Policy
}

// NewReducer returns a Reducer for the given order and policy.
func NewReducer(order *big.Int, policy Policy) (*Reducer, error) {
	if !policy.Available() {
		return nil, fmt.Errorf("%w: %d", ErrPolicy, policy)
	}

	if order == nil || order.Cmp(big.NewInt(2)) <= 0 {
		return nil, ErrOrder
	}

	bits := order.BitLen()
	nMinusOne := new(big.Int).Sub(order, big.NewInt(1))

	return &Reducer{
		order:     safenum.ModulusFromNat(new(safenum.Nat).SetBig(order, bits)),
		orderLess: safenum.ModulusFromNat(new(safenum.Nat).SetBig(nMinusOne, bits)),
		kdf:       hash.FromCrypto(crypto.SHA256).GetHashFunction(),
		bits:      bits,
		length:    (bits + 7) / 8,
		policy:    policy,
	}, nil
}

// Length returns the byte length of the scalars produced.
func (r *Reducer) Length() int {
	return r.length
}

// Policy returns the reduction policy.
func (r *Reducer) Policy() Policy {
	return r.policy
}

// Reduce returns the scalar for input, which must be at least Length() bytes long.
func (r *Reducer) Reduce(input []byte) (*Scalar, error) {
	if len(input) < r.length {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrShortInput, r.length, len(input))
	}

	var (
		s   *safenum.Nat
		err error
	)

	switch r.policy {
	case Modular:
		s = r.modular(input)
	case Rejection:
		s, err = r.rejection(input)
	default:
		return nil, fmt.Errorf("%w: %d", ErrPolicy, r.policy)
	}

	if err != nil {
		return nil, err
	}

	defer s.SetUint64(0)

	if s.EqZero() == 1 {
		return nil, ErrDegenerate
	}

	return &Scalar{b: s.FillBytes(make([]byte, r.length))}, nil
}

func (r *Reducer) modular(input []byte) *safenum.Nat {
	x := new(safenum.Nat).SetBytes(input)
	defer x.SetUint64(0)

	// s < N-1, so s + 1 never wraps modulo N.
	s := new(safenum.Nat).Mod(x, r.orderLess)

	return s.ModAdd(s, new(safenum.Nat).SetUint64(1), r.order)
}

// rejection always draws all candidates, so that the running time does not reveal which one was selected.
func (r *Reducer) rejection(input []byte) (*safenum.Nat, error) {
	prk := r.kdf.HKDFExtract(input, []byte(rejectionInfo))
	defer internal.Zero(prk)

	mask := byte(0xff >> (8*r.length - r.bits))
	selected := new(safenum.Nat).SetUint64(0)
	found := safenum.Choice(0)

	for i := range RejectionCandidates {
		candidate := r.kdf.HKDFExpand(prk, encoding.SuffixString(encoding.I2OSP(i, 1), rejectionInfo), r.length)
		candidate[0] &= mask

		c := new(safenum.Nat).SetBytes(candidate)
		internal.Zero(candidate)

		_, _, lt := c.CmpMod(r.order)
		valid := lt & (1 ^ c.EqZero())
		take := valid & (1 ^ found)

		selected.CondAssign(take, c)
		found |= valid

		c.SetUint64(0)
	}

	if found != 1 {
		return nil, ErrExhausted
	}

	return selected, nil
}
