// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package regkey

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/bytemare/regkey/internal"
	"github.com/bytemare/regkey/internal/curve"
	internalKSF "github.com/bytemare/regkey/internal/ksf"
	"github.com/bytemare/regkey/internal/salt"
	"github.com/bytemare/regkey/internal/scalar"
)

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets the logger of the Deriver. Only stage timings, usernames and realms are logged, at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deriver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Deriver derives registration key pairs from passwords. It holds no secret and no mutable state, and is safe for
// concurrent use.
type Deriver struct {
	conf   *Configuration
	comp   *components
	logger *slog.Logger
}

// NewDeriver validates the configuration and returns a Deriver for it. If conf is nil, DefaultConfiguration is used.
func NewDeriver(conf *Configuration, options ...Option) (*Deriver, error) {
	if conf == nil {
		conf = DefaultConfiguration()
	}

	conf = conf.Copy()

	comp, err := conf.build()
	if err != nil {
		return nil, err
	}

	d := &Deriver{
		conf:   conf,
		comp:   comp,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, option := range options {
		option(d)
	}

	if !comp.ksf.MemoryHard() {
		d.logger.Warn("key stretching function is not memory-hard", "ksf", ksfName(conf.KSF))
	}

	return d, nil
}

// Configuration returns a copy of the Deriver's configuration.
func (d *Deriver) Configuration() *Configuration {
	return d.conf.Copy()
}

// PublicKeyLength returns the byte length of the public keys in the configured encoding.
func (d *Deriver) PublicKeyLength() int {
	return d.comp.codec.Length()
}

// DerivePublicKey returns the lowercase hex encoding of the public key derived from the password for the username and
// realm. The same inputs always yield the same key. The password is neither modified nor retained.
func (d *Deriver) DerivePublicKey(username string, password []byte, realm string) (string, error) {
	sk, pk, err := d.derive(username, password, realm)
	if err != nil {
		return "", err
	}

	sk.Clear()

	encoded, err := d.comp.codec.EncodeString(pk)
	if err != nil {
		return "", ErrInternalInvariantViolation.Join(err)
	}

	return encoded, nil
}

// DerivePublicKeyBytes is like DerivePublicKey, but returns the wire bytes instead of their hex encoding.
func (d *Deriver) DerivePublicKeyBytes(username string, password []byte, realm string) ([]byte, error) {
	sk, pk, err := d.derive(username, password, realm)
	if err != nil {
		return nil, err
	}

	sk.Clear()

	encoded, err := d.comp.codec.Serialize(pk)
	if err != nil {
		return nil, ErrInternalInvariantViolation.Join(err)
	}

	return encoded, nil
}

// DeriveKeyPair returns the big-endian private scalar and the wire encoding of the public key. The caller owns the
// secret key and must clear it after use.
func (d *Deriver) DeriveKeyPair(username string, password []byte, realm string) (secretKey, publicKey []byte, err error) {
	sk, pk, err := d.derive(username, password, realm)
	if err != nil {
		return nil, nil, err
	}

	defer sk.Clear()

	publicKey, err = d.comp.codec.Serialize(pk)
	if err != nil {
		return nil, nil, ErrInternalInvariantViolation.Join(err)
	}

	return sk.Bytes(), publicKey, nil
}

type result struct {
	err     error
	encoded string
}

// DerivePublicKeyContext runs DerivePublicKey on its own goroutine and returns early if ctx is done. The derivation
// then completes in the background on a private copy of the password, which is cleared when it finishes, and its
// result is discarded.
func (d *Deriver) DerivePublicKeyContext(
	ctx context.Context,
	username string,
	password []byte,
	realm string,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pw := slices.Clone(password)
	done := make(chan result, 1)

	go func() {
		defer internal.ClearSlice(&pw)

		encoded, err := d.DerivePublicKey(username, pw, realm)
		done <- result{encoded: encoded, err: err}
	}()

	select {
	case r := <-done:
		return r.encoded, r.err
	case <-ctx.Done():
		d.logger.Debug("derivation abandoned", "username", username, "realm", realm, "cause", ctx.Err())
		return "", ctx.Err()
	}
}

// Verify returns whether publicKey, in its hex text form, is the key derived from the password for the username and
// realm. The comparison is made on the canonical encodings, in constant time.
func (d *Deriver) Verify(username string, password []byte, realm, publicKey string) (bool, error) {
	submitted, err := d.comp.codec.DecodeString(publicKey)
	if err != nil {
		return false, ErrMalformedEncoding.Join(err)
	}

	expected, err := d.comp.codec.Serialize(submitted)
	if err != nil {
		return false, ErrMalformedEncoding.Join(err)
	}

	derived, err := d.DerivePublicKeyBytes(username, password, realm)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(expected, derived) == 1, nil
}

// ValidatePublicKey verifies that encoded is the hex text form of a valid public key under the Deriver's
// configuration.
func (d *Deriver) ValidatePublicKey(encoded string) error {
	if _, err := d.comp.codec.DecodeString(encoded); err != nil {
		return ErrMalformedEncoding.Join(err)
	}

	return nil
}

// derive runs the pipeline up to the public point. The returned scalar is owned by the caller, who must clear it.
func (d *Deriver) derive(username string, password []byte, realm string) (*scalar.Scalar, *curve.Point, error) {
	if len(password) == 0 {
		return nil, nil, ErrInvalidParameters.Join(internalKSF.ErrEmptyPassword)
	}

	s, err := salt.Build(username, realm, []byte(d.conf.Separator))
	if err != nil {
		return nil, nil, ErrInvalidParameters.Join(err)
	}

	start := time.Now()

	stretched, err := d.comp.ksf.Stretch(password, s)
	if err != nil {
		if errors.Is(err, internalKSF.ErrHarden) {
			return nil, nil, ErrInternalInvariantViolation.Join(err)
		}

		return nil, nil, ErrInvalidParameters.Join(err)
	}

	defer internal.ClearSlice(&stretched)

	d.logger.Debug("password stretched",
		"username", username,
		"realm", realm,
		"ksf", ksfName(d.conf.KSF),
		"duration", time.Since(start),
	)

	sk, err := d.comp.reducer.Reduce(stretched)
	if err != nil {
		if errors.Is(err, scalar.ErrDegenerate) {
			return nil, nil, ErrDegenerateScalar.Join(err)
		}

		return nil, nil, ErrInternalInvariantViolation.Join(err)
	}

	k := sk.Bytes()
	defer internal.ClearSlice(&k)

	start = time.Now()

	pk, err := d.comp.engine.MultiplyBase(k)
	if err != nil {
		sk.Clear()

		if errors.Is(err, curve.ErrPointAtInfinity) {
			return nil, nil, ErrPointAtInfinity.Join(err)
		}

		return nil, nil, ErrInternalInvariantViolation.Join(err)
	}

	d.logger.Debug("public key computed",
		"username", username,
		"realm", realm,
		"curve", d.comp.curve.Name(),
		"duration", time.Since(start),
	)

	return sk, pk, nil
}
