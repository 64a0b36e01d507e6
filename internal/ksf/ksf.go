// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package ksf wraps the memory-hard Key Stretching Functions that turn a password and salt into key material.
package ksf

import (
	"errors"
	"fmt"
	"math"

	"github.com/bytemare/ksf"

	"github.com/bytemare/regkey/internal"
)

var (
	// ErrUnsupported indicates that the key stretching function is not available.
	ErrUnsupported = errors.New("unsupported key stretching function")

	// ErrKeyLength indicates an output length that is zero, negative, or too short for the curve.
	ErrKeyLength = errors.New("invalid KSF output length")

	// ErrRounds indicates a zero or negative number of rounds.
	ErrRounds = errors.New("invalid number of rounds")

	// ErrCostFactor indicates a cost factor the KSF does not support.
	ErrCostFactor = errors.New("unsupported cost factor")

	// ErrBlockSize indicates an invalid block size.
	ErrBlockSize = errors.New("invalid block size")

	// ErrParallelization indicates an invalid parallelization factor.
	ErrParallelization = errors.New("invalid parallelization factor")

	// ErrTooLarge indicates parameters whose memory requirements overflow.
	ErrTooLarge = errors.New("KSF parameters are too large")

	// ErrEmptyPassword indicates an empty password.
	ErrEmptyPassword = errors.New("empty password")

	// ErrEmptySalt indicates an empty salt.
	ErrEmptySalt = errors.New("empty salt")

	// ErrHarden indicates that the underlying primitive failed to produce its output.
	ErrHarden = errors.New("key stretching failed")
)

const (
	scryptMaxCostFactor = 30
	argonMinCostFactor  = 3
	argonMaxCostFactor  = 31
	argonMaxThreads     = math.MaxUint8
	argonBlocksPerLane  = 8
)

// Parameters holds the cost parameters of a key stretching function. Their meaning depends on the function:
//   - Scrypt: N = 2^CostFactor, r = BlockSize, p = Parallelization. Rounds is a scheduling interval only.
//   - Argon2id: time = Rounds, memory = 2^CostFactor KiB, threads = Parallelization. BlockSize must be 0.
//   - PBKDF2: iterations = Rounds. All other cost parameters must be 0.
type Parameters struct {
	CostFactor      int
	BlockSize       int
	Parallelization int
	KeyLength       int
	Rounds          int
}

// Validate returns an error if the parameters are out of bounds for the KSF identified by id.
func (p *Parameters) Validate(id ksf.Identifier) error {
	if !id.Available() {
		return fmt.Errorf("%w: %d", ErrUnsupported, id)
	}

	if p.KeyLength <= 0 {
		return fmt.Errorf("%w: %d", ErrKeyLength, p.KeyLength)
	}

	if p.Rounds <= 0 {
		return fmt.Errorf("%w: %d", ErrRounds, p.Rounds)
	}

	switch id {
	case ksf.Scrypt:
		return p.validateScrypt()
	case ksf.Argon2id:
		return p.validateArgon2id()
	case ksf.PBKDF2Sha512:
		return p.validatePBKDF2()
	default:
		return fmt.Errorf("%w: %d", ErrUnsupported, id)
	}
}

// validateScrypt mirrors the bounds golang.org/x/crypto/scrypt enforces, so that they surface as errors here instead
// of failures inside the primitive.
func (p *Parameters) validateScrypt() error {
	if p.CostFactor < 1 || p.CostFactor > scryptMaxCostFactor {
		return fmt.Errorf("%w: scrypt cost factor must be in [1, %d], got %d",
			ErrCostFactor, scryptMaxCostFactor, p.CostFactor)
	}

	if p.BlockSize < 1 {
		return fmt.Errorf("%w: %d", ErrBlockSize, p.BlockSize)
	}

	if p.Parallelization < 1 {
		return fmt.Errorf("%w: %d", ErrParallelization, p.Parallelization)
	}

	n := 1 << p.CostFactor
	r, par := p.BlockSize, p.Parallelization

	if uint64(r)*uint64(par) >= 1<<30 || r > math.MaxInt/128/par || r > math.MaxInt/256 || n > math.MaxInt/128/r {
		return ErrTooLarge
	}

	return nil
}

func (p *Parameters) validateArgon2id() error {
	if p.CostFactor < argonMinCostFactor || p.CostFactor > argonMaxCostFactor {
		return fmt.Errorf("%w: argon2id cost factor must be in [%d, %d], got %d",
			ErrCostFactor, argonMinCostFactor, argonMaxCostFactor, p.CostFactor)
	}

	if p.BlockSize != 0 {
		return fmt.Errorf("%w: argon2id takes no block size, got %d", ErrBlockSize, p.BlockSize)
	}

	if p.Parallelization < 1 || p.Parallelization > argonMaxThreads {
		return fmt.Errorf("%w: %d", ErrParallelization, p.Parallelization)
	}

	if 1<<p.CostFactor < argonBlocksPerLane*p.Parallelization {
		return fmt.Errorf("%w: argon2id needs at least %d KiB per lane", ErrCostFactor, argonBlocksPerLane)
	}

	if uint64(p.Rounds) > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrRounds, p.Rounds)
	}

	return nil
}

func (p *Parameters) validatePBKDF2() error {
	if p.CostFactor != 0 {
		return fmt.Errorf("%w: pbkdf2 takes no cost factor, got %d", ErrCostFactor, p.CostFactor)
	}

	if p.BlockSize != 0 {
		return fmt.Errorf("%w: pbkdf2 takes no block size, got %d", ErrBlockSize, p.BlockSize)
	}

	if p.Parallelization != 0 {
		return fmt.Errorf("%w: pbkdf2 takes no parallelization, got %d", ErrParallelization, p.Parallelization)
	}

	return nil
}

// canonical returns the parameters in the order the KSF implementation expects them.
func (p *Parameters) canonical(id ksf.Identifier) []int {
	switch id {
	case ksf.Scrypt:
		return []int{1 << p.CostFactor, p.BlockSize, p.Parallelization}
	case ksf.Argon2id:
		return []int{p.Rounds, 1 << p.CostFactor, p.Parallelization}
	case ksf.PBKDF2Sha512:
		return []int{p.Rounds}
	default:
		return nil
	}
}

// KSF wraps a key stretching function and its validated parameters.
type KSF struct {
	parameters Parameters
	id         ksf.Identifier
}

// NewKSF returns a newly instantiated KSF, or an error if the parameters are invalid for it.
func NewKSF(id ksf.Identifier, parameters Parameters) (*KSF, error) {
	if err := parameters.Validate(id); err != nil {
		return nil, err
	}

	return &KSF{
		id:         id,
		parameters: parameters,
	}, nil
}

// Identifier returns the identifier of the wrapped function.
func (k *KSF) Identifier() ksf.Identifier {
	return k.id
}

// Parameters returns a copy of the parameters.
func (k *KSF) Parameters() Parameters {
	return k.parameters
}

// MemoryHard returns whether the function resists hardware-parallel guessing.
func (k *KSF) MemoryHard() bool {
	return k.id == ksf.Scrypt || k.id == ksf.Argon2id
}

// Stretch hardens the password with the salt and returns KeyLength bytes. The caller owns the output and must clear it.
// Nothing is returned on error, and a partial output is cleared.
func (k *KSF) Stretch(password, salt []byte) (out []byte, err error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}

	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}

	defer func() {
		if r := recover(); r != nil {
			internal.ClearSlice(&out)
			err = fmt.Errorf("%w: %v", ErrHarden, r)
		}
	}()

	// A fresh instance per call: the parameterized state is never shared between concurrent derivations.
	f := k.id.Get()
	f.Parameterize(k.parameters.canonical(k.id)...)
	out = f.Harden(password, salt, k.parameters.KeyLength)

	if len(out) != k.parameters.KeyLength {
		internal.ClearSlice(&out)
		return nil, fmt.Errorf("%w: expected %d bytes", ErrHarden, k.parameters.KeyLength)
	}

	return out, nil
}
