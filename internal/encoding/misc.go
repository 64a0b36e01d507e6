// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package encoding

import "errors"

// ErrDecoding indicates that a length-prefixed vector is truncated or has trailing data.
var ErrDecoding = errors.New("invalid vector encoding")

// Concatenate takes the variadic array of input and returns a concatenation of it.
func Concatenate(input ...[]byte) []byte {
	length := 0
	for _, b := range input {
		length += len(b)
	}

	buf := make([]byte, 0, length)

	for _, in := range input {
		buf = append(buf, in...)
	}

	return buf
}

// SuffixString returns a new slice holding a followed by the bytes of b.
func SuffixString(a []byte, b string) []byte {
	e := make([]byte, 0, len(a)+len(b))
	e = append(e, a...)
	e = append(e, b...)

	return e
}

// EncodeVector returns the input prefixed with its length on 2 bytes.
func EncodeVector(in []byte) []byte {
	return Concatenate(I2OSP(len(in), 2), in)
}

// DecodeVector reads a 2-byte length-prefixed vector from the head of in, and returns it and the remaining bytes.
func DecodeVector(in []byte) (vector, remainder []byte, err error) {
	if len(in) < 2 {
		return nil, nil, ErrDecoding
	}

	length := OS2IP(in[:2])
	if len(in) < 2+length {
		return nil, nil, ErrDecoding
	}

	return in[2 : 2+length], in[2+length:], nil
}
