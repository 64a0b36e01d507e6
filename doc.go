// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package regkey derives deterministic elliptic curve key pairs from passwords, for registration forms that submit a
// public key instead of the password.
//
// A derivation builds the salt username || separator || realm, stretches the password over it with a memory-hard key
// stretching function (scrypt by default), reduces the stretched bytes to a private scalar in [1, N-1], and multiplies
// the base point of the configured curve by that scalar. The public key, in its wire encoding, is the only value that
// leaves the client. Identical inputs always produce the same key, so the server can later check a login by asking for
// the same derivation.
//
// The default configuration reproduces the historical form: scrypt with N = 2^14, r = 8, p = 1 and a 32-byte output,
// secp256k1, and public keys encoded as the hex of X || Y.
//
//	d, err := regkey.NewDeriver(regkey.DefaultConfiguration())
//	if err != nil {
//		return err
//	}
//
//	publicKey, err := d.DerivePublicKey("alice", password, regkey.DefaultRealm)
//
// Errors carry an ErrorCode. Use errors.Is with the exported sentinels (ErrInvalidParameters, ErrInvalidCurve, ...)
// to classify them. None of them are transient: a failed derivation must abort the registration.
package regkey
