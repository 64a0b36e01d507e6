// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrExists indicates that Write would overwrite an existing file.
var ErrExists = errors.New("configuration file already exists")

// Loader loads configuration from files and the environment.
type Loader interface {
	// Load reads the file at path. Keys missing from the file take their default value.
	Load(path string) (*Config, error)

	// LoadWithDefaults is like Load, but uses the defaults if the file does not exist.
	LoadWithDefaults(path string) (*Config, error)
}

type viperLoader struct {
	validator Validator
}

// NewLoader returns a Loader that validates what it loads with validator. Environment variables prefixed with
// EnvPrefix override both the file and the defaults.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

func (l *viperLoader) Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.decode(v)
}

func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return l.decode(newViper())
	}

	return l.Load(path)
}

func (l *viperLoader) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// newViper returns a viper instance seeded with the defaults. Environment overrides only apply to keys viper knows
// of, hence every key is registered as a default.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("derivation.curve", d.Derivation.Curve)
	v.SetDefault("derivation.ksf", d.Derivation.KSF)
	v.SetDefault("derivation.cost_factor", d.Derivation.CostFactor)
	v.SetDefault("derivation.block_size", d.Derivation.BlockSize)
	v.SetDefault("derivation.parallelization", d.Derivation.Parallelization)
	v.SetDefault("derivation.key_length", d.Derivation.KeyLength)
	v.SetDefault("derivation.rounds", d.Derivation.Rounds)
	v.SetDefault("derivation.separator", d.Derivation.Separator)
	v.SetDefault("derivation.realm", d.Derivation.Realm)
	v.SetDefault("derivation.reduction", d.Derivation.Reduction)
	v.SetDefault("derivation.encoding", d.Derivation.Encoding)
	v.SetDefault("derivation.backend", d.Derivation.Backend)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	return v
}

// Write writes cfg as YAML to path, creating its directory. It refuses to replace an existing file unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if cfg == nil {
		return errNoConfig
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
