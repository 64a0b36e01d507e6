// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package codec serializes curve points to their wire and text forms.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bytemare/regkey/internal/curve"
)

var (
	// ErrFormat indicates an unknown encoding format.
	ErrFormat = errors.New("unknown encoding format")

	// ErrIdentity indicates an attempt to encode or decode the point at infinity.
	ErrIdentity = errors.New("the point at infinity has no encoding")

	// ErrLength indicates an encoding of the wrong length.
	ErrLength = errors.New("invalid encoding length")

	// ErrPrefix indicates an invalid SEC1 prefix byte.
	ErrPrefix = errors.New("invalid encoding prefix")

	// ErrCoordinate indicates a coordinate that is not a field element.
	ErrCoordinate = errors.New("coordinate is not a field element")

	// ErrNotOnCurve indicates a decoded point that is not on the curve.
	ErrNotOnCurve = errors.New("decoded point is not on the curve")

	// ErrHex indicates an invalid hexadecimal text form.
	ErrHex = errors.New("invalid hex encoding")
)

// Format identifies a point encoding.
type Format byte

const (
	// Raw is X || Y, each left-padded to the field length, without prefix.
	Raw Format = 1 + iota

	// Uncompressed is the SEC1 form 0x04 || X || Y.
	Uncompressed

	// Compressed is the SEC1 form 0x02 || X for an even Y, or 0x03 || X for an odd Y.
	Compressed
)

const (
	prefixEven         = 0x02
	prefixOdd          = 0x03
	prefixUncompressed = 0x04
)

var formatNames = map[Format]string{
	Raw:          "raw",
	Uncompressed: "uncompressed",
	Compressed:   "compressed",
}

// ParseFormat returns the format registered under name.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for f, s := range formatNames {
		if s == n {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrFormat, name)
}

// Available returns whether f is a known format.
func (f Format) Available() bool {
	_, ok := formatNames[f]
	return ok
}

// String returns the name of the format.
func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}

	return fmt.Sprintf("Format(%d)", byte(f))
}

// Codec encodes and decodes points of one curve in one format.
type Codec struct {
	curve  *curve.Curve
	format Format
}

// New returns a Codec for c in the given format.
func New(c *curve.Curve, format Format) (*Codec, error) {
	if !format.Available() {
		return nil, fmt.Errorf("%w: %d", ErrFormat, format)
	}

	return &Codec{curve: c, format: format}, nil
}

// Format returns the encoding format.
func (c *Codec) Format() Format {
	return c.format
}

// Length returns the byte length of an encoded point.
func (c *Codec) Length() int {
	return EncodedLength(c.curve.FieldLength(), c.format)
}

// EncodedLength returns the byte length of a point encoding for the given field length.
func EncodedLength(fieldLength int, format Format) int {
	switch format {
	case Raw:
		return 2 * fieldLength
	case Uncompressed:
		return 1 + 2*fieldLength
	case Compressed:
		return 1 + fieldLength
	default:
		return 0
	}
}

// Serialize returns the encoding of p.
func (c *Codec) Serialize(p *curve.Point) ([]byte, error) {
	if p.IsIdentity() {
		return nil, ErrIdentity
	}

	fl := c.curve.FieldLength()
	out := make([]byte, c.Length())

	switch c.format {
	case Raw:
		p.X().FillBytes(out[:fl])
		p.Y().FillBytes(out[fl:])
	case Uncompressed:
		out[0] = prefixUncompressed
		p.X().FillBytes(out[1 : 1+fl])
		p.Y().FillBytes(out[1+fl:])
	case Compressed:
		out[0] = prefixEven | byte(p.Y().Bit(0))
		p.X().FillBytes(out[1:])
	}

	return out, nil
}

// Deserialize decodes input into a point of the curve. It never returns the identity.
func (c *Codec) Deserialize(input []byte) (*curve.Point, error) {
	if len(input) == 0 || (c.format != Raw && len(input) == 1 && input[0] == 0) {
		return nil, ErrIdentity
	}

	if len(input) != c.Length() {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrLength, c.Length(), len(input))
	}

	fl := c.curve.FieldLength()

	switch c.format {
	case Raw:
		return c.affine(input[:fl], input[fl:])
	case Uncompressed:
		if input[0] != prefixUncompressed {
			return nil, fmt.Errorf("%w: 0x%02x", ErrPrefix, input[0])
		}

		return c.affine(input[1:1+fl], input[1+fl:])
	case Compressed:
		if input[0] != prefixEven && input[0] != prefixOdd {
			return nil, fmt.Errorf("%w: 0x%02x", ErrPrefix, input[0])
		}

		x, err := c.coordinate(input[1:])
		if err != nil {
			return nil, err
		}

		p, err := c.curve.Decompress(x, input[0] == prefixOdd)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotOnCurve, err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrFormat, c.format)
	}
}

func (c *Codec) coordinate(b []byte) (*big.Int, error) {
	v := new(big.Int).SetBytes(b)
	if v.Cmp(c.curve.Params().P) >= 0 {
		return nil, ErrCoordinate
	}

	return v, nil
}

func (c *Codec) affine(xb, yb []byte) (*curve.Point, error) {
	x, err := c.coordinate(xb)
	if err != nil {
		return nil, err
	}

	y, err := c.coordinate(yb)
	if err != nil {
		return nil, err
	}

	p, err := c.curve.NewPoint(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotOnCurve, err)
	}

	return p, nil
}

// EncodeString returns the lowercase hexadecimal encoding of p.
func (c *Codec) EncodeString(p *curve.Point) (string, error) {
	b, err := c.Serialize(p)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// DecodeString decodes the hexadecimal text form of a point. Upper case digits are accepted.
func (c *Codec) DecodeString(s string) (*curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHex, err)
	}

	return c.Deserialize(b)
}
