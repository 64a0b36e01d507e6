// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package encoding provides the integer and vector encodings used to serialize configurations.
package encoding

import (
	"encoding/binary"
	"errors"
)

var (
	errInputNegative  = errors.New("negative input")
	errInputLarge     = errors.New("input is too high for length")
	errLengthNegative = errors.New("length is negative or 0")
	errLengthTooBig   = errors.New("requested length is > 4")

	errInputEmpty    = errors.New("nil or empty input")
	errInputTooLarge = errors.New("input too large for integer")
)

// I2OSP 32-bit Integer to Octet Stream Primitive on maximum 4 bytes. It panics on invalid input, since every caller
// encodes values it has already validated.
func I2OSP(value, length int) []byte {
	if length <= 0 {
		panic(errLengthNegative)
	}

	if length > 4 {
		panic(errLengthTooBig)
	}

	if value < 0 {
		panic(errInputNegative)
	}

	if uint64(value) >= 1<<(8*uint(length)) {
		panic(errInputLarge)
	}

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(value))

	return out[4-length:]
}

// OS2IP Octet Stream to Integer Primitive on maximum 4 bytes / 32 bits.
func OS2IP(input []byte) int {
	switch length := len(input); {
	case length == 0:
		panic(errInputEmpty)
	case length > 4:
		panic(errInputTooLarge)
	default:
		buf := make([]byte, 4)
		copy(buf[4-length:], input)

		return int(binary.BigEndian.Uint32(buf))
	}
}
