// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package internal provides helpers shared by the derivation stages that are not part of the public API.
package internal

// Zero overwrites the contents of b with zeros. It is a best-effort attempt: the runtime may have copied the backing
// array elsewhere.
func Zero(b []byte) {
	clear(b)
}

// ClearSlice zeroes the contents of the slice pointed to by s, and sets it to nil.
func ClearSlice(s *[]byte) {
	if s == nil {
		return
	}

	Zero(*s)
	*s = nil
}
