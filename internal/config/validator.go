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
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bytemare/regkey/internal/salt"
)

// Validator validates configuration values.
type Validator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator returns a Validator reporting fields by their configuration key.
func NewValidator() Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &validatorImpl{validate: v}
}

// Validate checks the struct tags first, then the constraints between fields.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return errNoConfig
	}

	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return fmt.Errorf("validation error: %w", err)
		}

		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}

		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	d := cfg.Derivation
	if err := salt.ValidateRealm(d.Realm, []byte(d.Separator)); err != nil {
		return fmt.Errorf("configuration validation failed:\n  - derivation.realm must not contain the separator %q, "+
			"nor start with its end (got: %q)", d.Separator, d.Realm)
	}

	return nil
}

func formatValidationError(e validator.FieldError) string {
	path := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return path + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", path, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", path, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", path, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", path, e.Tag(), e.Value())
	}
}

// formatFieldPath drops the root struct name: "Config.derivation.cost_factor" becomes "derivation.cost_factor".
func formatFieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return path
}
