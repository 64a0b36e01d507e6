// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package salt builds the per-account derivation salt.
package salt

import (
	"bytes"
	"errors"

	"github.com/bytemare/regkey/internal/encoding"
)

var (
	// ErrEmptyUsername indicates an empty username.
	ErrEmptyUsername = errors.New("empty username")

	// ErrEmptyRealm indicates an empty realm.
	ErrEmptyRealm = errors.New("empty realm")

	// ErrEmptySeparator indicates an empty separator, which would make the salt ambiguous.
	ErrEmptySeparator = errors.New("empty salt separator")

	// ErrSeparatorInUsername indicates that the separator occurs in the username, or across its end.
	ErrSeparatorInUsername = errors.New("username contains the salt separator")

	// ErrSeparatorInRealm indicates that the separator occurs in the realm, or across its start.
	ErrSeparatorInRealm = errors.New("realm contains the salt separator")
)

// ValidateSeparator returns an error if the separator can't delimit a salt.
func ValidateSeparator(separator []byte) error {
	if len(separator) == 0 {
		return ErrEmptySeparator
	}

	return nil
}

// ValidateRealm returns an error if realm is empty, or if the separator would occur in separator || realm anywhere
// but at its start. This covers separators formed across the join, e.g. realm "|ZERO" with separator "||".
func ValidateRealm(realm string, separator []byte) error {
	if realm == "" {
		return ErrEmptyRealm
	}

	if bytes.LastIndex(encoding.Concatenate(separator, []byte(realm)), separator) != 0 {
		return ErrSeparatorInRealm
	}

	return nil
}

// validateUsername is the mirror of ValidateRealm: the separator must occur in username || separator only at its end.
func validateUsername(username string, separator []byte) error {
	if username == "" {
		return ErrEmptyUsername
	}

	if bytes.Index(encoding.Concatenate([]byte(username), separator), separator) != len(username) {
		return ErrSeparatorInUsername
	}

	return nil
}

// Build returns username || separator || realm. Inputs are rejected rather than escaped if the separator would occur
// anywhere else in the salt, overlapping occurrences included, so that any two distinct (username, realm) pairs
// always map to distinct salts.
func Build(username, realm string, separator []byte) ([]byte, error) {
	if err := ValidateSeparator(separator); err != nil {
		return nil, err
	}

	if err := validateUsername(username, separator); err != nil {
		return nil, err
	}

	if err := ValidateRealm(realm, separator); err != nil {
		return nil, err
	}

	return encoding.Concatenate([]byte(username), separator, []byte(realm)), nil
}
