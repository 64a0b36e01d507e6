// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package curve_test

import (
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"math/big"
	"slices"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bytemare/regkey/internal/curve"
)

func fromHex(t *testing.T, s string) *big.Int {
	t.Helper()

	i, ok := new(big.Int).SetString(s, 16)
	if !ok {
		t.Fatalf("invalid hex %q", s)
	}

	return i
}

func newNamed(t *testing.T, name string) *curve.Curve {
	t.Helper()

	c, err := curve.NewNamed(name)
	if err != nil {
		t.Fatal(err)
	}

	return c
}

func scalarBytes(c *curve.Curve, k *big.Int) []byte {
	return k.FillBytes(make([]byte, c.ScalarLength()))
}

// testScalars returns deterministic scalars in [1, N-1], including the edges.
func testScalars(c *curve.Curve) [][]byte {
	n := c.Order()
	scalars := [][]byte{
		scalarBytes(c, big.NewInt(1)),
		scalarBytes(c, big.NewInt(2)),
		scalarBytes(c, new(big.Int).Sub(n, big.NewInt(1))),
	}

	seed := []byte(c.Name())
	for range 5 {
		d := sha256.Sum256(seed)
		seed = d[:]
		k := new(big.Int).SetBytes(d[:])
		k.Mod(k, new(big.Int).Sub(n, big.NewInt(1))).Add(k, big.NewInt(1))
		scalars = append(scalars, scalarBytes(c, k))
	}

	return scalars
}

func TestCanonicalName(t *testing.T) {
	tests := map[string]string{
		"secp256k1":  curve.Secp256k1,
		" K256 ":     curve.Secp256k1,
		"k192":       curve.Secp192k1,
		"K224":       curve.Secp224k1,
		"P-256":      curve.P256,
		"prime256v1": curve.P256,
		"secp384r1":  curve.P384,
		"SECP521R1":  curve.P521,
	}

	for in, expected := range tests {
		got, err := curve.CanonicalName(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}

		if got != expected {
			t.Fatalf("%q: expected %q, got %q", in, expected, got)
		}
	}

	if _, err := curve.CanonicalName("curve25519"); !errors.Is(err, curve.ErrUnknownCurve) {
		t.Fatalf("expected %q, got %v", curve.ErrUnknownCurve, err)
	}
}

func TestNames(t *testing.T) {
	names := curve.Names()
	if !slices.IsSorted(names) {
		t.Fatalf("names are not sorted: %v", names)
	}

	expected := []string{curve.Secp192k1, curve.Secp224k1, curve.Secp256k1, curve.P256, curve.P384, curve.P521}
	slices.Sort(expected)

	if !slices.Equal(names, expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}

	for _, name := range names {
		if _, err := curve.NewNamed(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestNamed_ReturnsCopy(t *testing.T) {
	p, err := curve.Named(curve.Secp256k1)
	if err != nil {
		t.Fatal(err)
	}

	p.B.SetInt64(5)

	c := newNamed(t, curve.Secp256k1)
	if c.Params().B.Int64() != 7 {
		t.Fatal("modifying returned parameters must not alter the built-in curve")
	}
}

func TestMultiplyBase_Vectors(t *testing.T) {
	tests := []struct {
		curve, k, x, y string
	}{
		{
			curve.Secp256k1, "2",
			"c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
			"1ae168fea63dc339a3c58419466ceaeef7f632653266d0e1236431a950cfe52a",
		},
		{
			curve.Secp256k1, "deadbeef",
			"76d2fdf1302d1fa9556f4df94ec84cefba6d482e54f47c6c2a238c1baa560f0e",
			"b754ac7e7a3e09c44184cb451a4f5fb557f32053eb015dffebb655b5cfd54d8a",
		},
		{
			curve.Secp192k1, "2",
			"f091cf6331b1747684f5d2549cd1d4b3a8bed93b94f93cb6",
			"fd7af42e1e7565a02e6268661c5e42e603da2d98a18f2ed5",
		},
		{
			curve.Secp224k1, "2",
			"86c0deb56aeb9712390999a0232b9bf596b9639fa1ce8cf426749e60",
			"8f598c954e1085555b474a79906b855c539ed633dbf4a9fa9f06b69a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.curve+"/"+tt.k, func(t *testing.T) {
			c := newNamed(t, tt.curve)

			p, err := c.MultiplyBase(scalarBytes(c, fromHex(t, tt.k)))
			if err != nil {
				t.Fatal(err)
			}

			if p.X().Cmp(fromHex(t, tt.x)) != 0 || p.Y().Cmp(fromHex(t, tt.y)) != 0 {
				t.Fatalf("unexpected point (%x, %x)", p.X(), p.Y())
			}
		})
	}
}

func TestMultiplyBase_OrderMinusOne(t *testing.T) {
	for _, name := range curve.Names() {
		c := newNamed(t, name)
		params := c.Params()

		p, err := c.MultiplyBase(scalarBytes(c, new(big.Int).Sub(params.N, big.NewInt(1))))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		negY := new(big.Int).Sub(params.P, params.Gy)
		if p.X().Cmp(params.Gx) != 0 || p.Y().Cmp(negY) != 0 {
			t.Fatalf("%s: (N-1)*G must be -G", name)
		}
	}
}

func TestMultiplyBase_Secp256k1Interop(t *testing.T) {
	c := newNamed(t, curve.Secp256k1)

	for _, k := range testScalars(c) {
		p, err := c.MultiplyBase(k)
		if err != nil {
			t.Fatal(err)
		}

		ref := secp256k1.PrivKeyFromBytes(k).PubKey()
		if p.X().Cmp(ref.X()) != 0 || p.Y().Cmp(ref.Y()) != 0 {
			t.Fatalf("mismatch with decred for scalar %x", k)
		}
	}
}

func TestMultiplyBase_NISTInterop(t *testing.T) {
	tests := map[string]elliptic.Curve{
		curve.P256: elliptic.P256(),
		curve.P384: elliptic.P384(),
		curve.P521: elliptic.P521(),
	}

	for name, ref := range tests {
		c := newNamed(t, name)

		for _, k := range testScalars(c) {
			p, err := c.MultiplyBase(k)
			if err != nil {
				t.Fatal(err)
			}

			x, y := ref.ScalarBaseMult(k) //nolint:staticcheck // reference implementation
			if p.X().Cmp(x) != 0 || p.Y().Cmp(y) != 0 {
				t.Fatalf("%s: mismatch for scalar %x", name, k)
			}
		}
	}
}

func TestGroupEngine_MatchesGeneric(t *testing.T) {
	for _, name := range []string{curve.Secp256k1, curve.P256, curve.P384, curve.P521} {
		t.Run(name, func(t *testing.T) {
			if !curve.HasGroup(name) {
				t.Fatalf("expected a group backend for %s", name)
			}

			c := newNamed(t, name)

			e, err := curve.NewGroupEngine(c)
			if err != nil {
				t.Fatal(err)
			}

			if e.Curve() != c {
				t.Fatal("unexpected curve")
			}

			for _, k := range testScalars(c) {
				expected, err := c.MultiplyBase(k)
				if err != nil {
					t.Fatal(err)
				}

				got, err := e.MultiplyBase(k)
				if err != nil {
					t.Fatal(err)
				}

				if !got.Equal(expected) {
					t.Fatalf("backends disagree for scalar %x", k)
				}
			}
		})
	}
}

func TestGroupEngine_Unavailable(t *testing.T) {
	if curve.HasGroup(curve.Secp192k1) || curve.HasGroup("unknown") {
		t.Fatal("unexpected group backend")
	}

	if _, err := curve.NewGroupEngine(newNamed(t, curve.Secp192k1)); !errors.Is(err, curve.ErrNoGroup) {
		t.Fatalf("expected %q, got %v", curve.ErrNoGroup, err)
	}

	// Custom parameters under a built-in name are not served by the dedicated implementation.
	params, err := curve.Named(curve.Secp256k1)
	if err != nil {
		t.Fatal(err)
	}

	params.Gx, params.Gy = fromHex(t, "c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"),
		fromHex(t, "1ae168fea63dc339a3c58419466ceaeef7f632653266d0e1236431a950cfe52a")

	c, err := curve.New(params)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = curve.NewGroupEngine(c); !errors.Is(err, curve.ErrNoGroup) {
		t.Fatalf("expected %q, got %v", curve.ErrNoGroup, err)
	}
}

func TestMultiplyBase_ScalarRange(t *testing.T) {
	c := newNamed(t, curve.Secp256k1)
	e, err := curve.NewGroupEngine(c)
	if err != nil {
		t.Fatal(err)
	}

	invalid := map[string][]byte{
		"zero":  make([]byte, 32),
		"order": scalarBytes(c, c.Order()),
		"max":   scalarBytes(c, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))),
		"short": make([]byte, 31),
		"long":  append(make([]byte, 32), 1),
	}

	for name, k := range invalid {
		if _, err := c.MultiplyBase(k); !errors.Is(err, curve.ErrScalarRange) {
			t.Fatalf("generic %s: expected %q, got %v", name, curve.ErrScalarRange, err)
		}

		if _, err := e.MultiplyBase(k); !errors.Is(err, curve.ErrScalarRange) {
			t.Fatalf("group %s: expected %q, got %v", name, curve.ErrScalarRange, err)
		}
	}
}

func TestMultiply_InvalidBase(t *testing.T) {
	c := newNamed(t, curve.Secp256k1)
	k := scalarBytes(c, big.NewInt(3))

	if _, err := c.Multiply(nil, k); !errors.Is(err, curve.ErrPointAtInfinity) {
		t.Fatalf("expected %q, got %v", curve.ErrPointAtInfinity, err)
	}

	if _, err := c.Multiply(&curve.Point{}, k); !errors.Is(err, curve.ErrPointAtInfinity) {
		t.Fatalf("expected %q, got %v", curve.ErrPointAtInfinity, err)
	}

	if _, err := c.NewPoint(big.NewInt(1), big.NewInt(1)); !errors.Is(err, curve.ErrNotOnCurve) {
		t.Fatalf("expected %q, got %v", curve.ErrNotOnCurve, err)
	}
}

func TestMultiply_Consistency(t *testing.T) {
	c := newNamed(t, curve.Secp256k1)

	// 3 * (2G) = 6G
	twoG, err := c.MultiplyBase(scalarBytes(c, big.NewInt(2)))
	if err != nil {
		t.Fatal(err)
	}

	sixG, err := c.Multiply(twoG, scalarBytes(c, big.NewInt(3)))
	if err != nil {
		t.Fatal(err)
	}

	expected, err := c.MultiplyBase(scalarBytes(c, big.NewInt(6)))
	if err != nil {
		t.Fatal(err)
	}

	if !sixG.Equal(expected) {
		t.Fatal("3*(2G) != 6G")
	}
}

func TestDecompress(t *testing.T) {
	for _, name := range curve.Names() {
		c := newNamed(t, name)

		for _, k := range testScalars(c) {
			p, err := c.MultiplyBase(k)
			if err != nil {
				t.Fatal(err)
			}

			d, err := c.Decompress(p.X(), p.Y().Bit(0) == 1)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}

			if !d.Equal(p) {
				t.Fatalf("%s: decompression mismatch", name)
			}
		}

		if _, err := c.Decompress(c.Params().P, false); !errors.Is(err, curve.ErrNotOnCurve) {
			t.Fatalf("%s: expected %q, got %v", name, curve.ErrNotOnCurve, err)
		}
	}
}

func TestDecompress_NoSquareRoot(t *testing.T) {
	c := newNamed(t, curve.Secp256k1)

	// x³ + 7 is a non-residue for x = 5 on secp256k1.
	if _, err := c.Decompress(big.NewInt(5), false); !errors.Is(err, curve.ErrNoSquareRoot) {
		t.Fatalf("expected %q, got %v", curve.ErrNoSquareRoot, err)
	}
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		mutate func(p *curve.Params)
		name   string
	}{
		{func(p *curve.Params) { p.P = nil }, "nil field order"},
		{func(p *curve.Params) { p.P = new(big.Int).Add(p.P, big.NewInt(2)) }, "composite field order"},
		{func(p *curve.Params) { p.BitSize = 255 }, "bit size"},
		{func(p *curve.Params) { p.N = new(big.Int).Add(p.N, big.NewInt(2)) }, "composite group order"},
		{func(p *curve.Params) { p.N = new(big.Int).Set(p.P) }, "wrong group order"},
		{func(p *curve.Params) { p.H = 0 }, "cofactor"},
		{func(p *curve.Params) { p.A = new(big.Int).Set(p.P) }, "coefficient range"},
		{func(p *curve.Params) { p.B = big.NewInt(0) }, "singular"},
		{func(p *curve.Params) { p.B = big.NewInt(5) }, "base point not on curve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := curve.Named(curve.Secp256k1)
			if err != nil {
				t.Fatal(err)
			}

			tt.mutate(p)

			if _, err = curve.New(p); !errors.Is(err, curve.ErrInvalidParams) {
				t.Fatalf("expected %q, got %v", curve.ErrInvalidParams, err)
			}
		})
	}

	if _, err := curve.New(nil); !errors.Is(err, curve.ErrInvalidParams) {
		t.Fatalf("expected %q, got %v", curve.ErrInvalidParams, err)
	}
}
