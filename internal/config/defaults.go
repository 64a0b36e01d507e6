// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package config

import (
	"os"
	"path/filepath"

	"github.com/bytemare/regkey"
)

const (
	// EnvPrefix prefixes the environment variables overriding configuration keys, e.g. REGKEY_DERIVATION_REALM.
	EnvPrefix = "REGKEY"

	// FileName is the name of the configuration file in the configuration directory.
	FileName = "config.yaml"
)

// DefaultConfig returns a Config matching regkey.DefaultConfiguration in the default realm.
func DefaultConfig() *Config {
	return &Config{
		Derivation: DerivationConfig{
			Curve:           regkey.DefaultCurve,
			KSF:             "scrypt",
			CostFactor:      regkey.DefaultCostFactor,
			BlockSize:       regkey.DefaultBlockSize,
			Parallelization: regkey.DefaultParallelization,
			KeyLength:       regkey.DefaultKeyLength,
			Rounds:          regkey.DefaultRounds,
			Separator:       regkey.DefaultSeparator,
			Realm:           regkey.DefaultRealm,
			Reduction:       regkey.ReductionModular.String(),
			Encoding:        regkey.EncodingRaw.String(),
			Backend:         regkey.BackendGeneric.String(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns the default configuration file path, under the user configuration directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}

	return filepath.Join(dir, "regkey", FileName)
}
