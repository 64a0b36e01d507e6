// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package config loads the file and environment configuration of the regkey command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/bytemare/regkey"
)

var (
	errCurveValue = errors.New("invalid curve parameter")
	errNoConfig   = errors.New("configuration is nil")
)

// Config is the root configuration structure.
type Config struct {
	Derivation DerivationConfig `mapstructure:"derivation" yaml:"derivation" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// DerivationConfig holds the derivation parameters and the realm registrations are derived for.
type DerivationConfig struct {
	CustomCurve     *CustomCurveConfig `mapstructure:"custom_curve"    yaml:"custom_curve,omitempty"`
	Curve           string             `mapstructure:"curve"           yaml:"curve"           validate:"required"`
	KSF             string             `mapstructure:"ksf"             yaml:"ksf"             validate:"required,oneof=scrypt argon2id pbkdf2 pbkdf2-sha512"`
	Separator       string             `mapstructure:"separator"       yaml:"separator"       validate:"required"`
	Realm           string             `mapstructure:"realm"           yaml:"realm"           validate:"required"`
	Reduction       string             `mapstructure:"reduction"       yaml:"reduction"       validate:"required,oneof=modular rejection"`
	Encoding        string             `mapstructure:"encoding"        yaml:"encoding"        validate:"required,oneof=raw uncompressed compressed"`
	Backend         string             `mapstructure:"backend"         yaml:"backend"         validate:"required,oneof=generic group"`
	CostFactor      int                `mapstructure:"cost_factor"     yaml:"cost_factor"     validate:"min=0,max=31"`
	BlockSize       int                `mapstructure:"block_size"      yaml:"block_size"      validate:"min=0"`
	Parallelization int                `mapstructure:"parallelization" yaml:"parallelization" validate:"min=0,max=255"`
	KeyLength       int                `mapstructure:"key_length"      yaml:"key_length"      validate:"min=1,max=65535"`
	Rounds          int                `mapstructure:"rounds"          yaml:"rounds"          validate:"min=1"`
}

// CustomCurveConfig holds explicit curve domain parameters, as hexadecimal strings.
type CustomCurveConfig struct {
	Name    string `mapstructure:"name"     yaml:"name"     validate:"required"`
	P       string `mapstructure:"p"        yaml:"p"        validate:"required"`
	A       string `mapstructure:"a"        yaml:"a"        validate:"required"`
	B       string `mapstructure:"b"        yaml:"b"        validate:"required"`
	Gx      string `mapstructure:"gx"       yaml:"gx"       validate:"required"`
	Gy      string `mapstructure:"gy"       yaml:"gy"       validate:"required"`
	N       string `mapstructure:"n"        yaml:"n"        validate:"required"`
	H       int    `mapstructure:"h"        yaml:"h"        validate:"min=1"`
	BitSize int    `mapstructure:"bit_size" yaml:"bit_size" validate:"min=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// SlogLevel returns the slog level for the configured level name, defaulting to warn.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelWarn
	}

	return level
}

// ToConfiguration converts the derivation section into a verified regkey.Configuration.
func (c *Config) ToConfiguration() (*regkey.Configuration, error) {
	if c == nil {
		return nil, errNoConfig
	}

	d := c.Derivation
	conf := &regkey.Configuration{
		Curve:           d.Curve,
		Separator:       d.Separator,
		CostFactor:      d.CostFactor,
		BlockSize:       d.BlockSize,
		Parallelization: d.Parallelization,
		KeyLength:       d.KeyLength,
		Rounds:          d.Rounds,
	}

	var err error

	if conf.KSF, err = regkey.ParseKSF(d.KSF); err != nil {
		return nil, err
	}

	if conf.Reduction, err = regkey.ParseReduction(d.Reduction); err != nil {
		return nil, err
	}

	if conf.Encoding, err = regkey.ParseEncoding(d.Encoding); err != nil {
		return nil, err
	}

	if conf.Backend, err = regkey.ParseBackend(d.Backend); err != nil {
		return nil, err
	}

	if d.CustomCurve != nil {
		if conf.CustomCurve, err = d.CustomCurve.params(); err != nil {
			return nil, regkey.ErrInvalidCurve.Join(err)
		}
	}

	if err = conf.Verify(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *CustomCurveConfig) params() (*regkey.CurveParams, error) {
	values := make([]*big.Int, 0, 6)

	for _, field := range []struct{ name, value string }{
		{"p", c.P}, {"a", c.A}, {"b", c.B}, {"gx", c.Gx}, {"gy", c.Gy}, {"n", c.N},
	} {
		v, err := parseHex(field.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errCurveValue, field.name, err)
		}

		values = append(values, v)
	}

	return &regkey.CurveParams{
		Name:    c.Name,
		P:       values[0],
		A:       values[1],
		B:       values[2],
		Gx:      values[3],
		Gy:      values[4],
		N:       values[5],
		H:       c.H,
		BitSize: c.BitSize,
	}, nil
}

func parseHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	v, ok := new(big.Int).SetString(s, 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("not a hexadecimal integer: %q", s)
	}

	return v, nil
}
