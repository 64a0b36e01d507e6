// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bytemare/regkey/form"
	"github.com/bytemare/regkey/internal"
)

var errKeyMismatch = errors.New("public key does not match the password")

// formOutput is the registration form as sent, printed with --form.
type formOutput struct {
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	PasswordConfirmation string `yaml:"password_confirmation"`
}

func (a *app) newDeriveCmd() *cobra.Command {
	var (
		realmFlag string
		showForm  bool
	)

	cmd := &cobra.Command{
		Use:   "derive <username>",
		Short: "Derive the public key for a username and password",
		Long: `Derive the public key registered for a username in place of the password.

The password is prompted for without echo on a terminal, and read from the first line of
stdin otherwise. The key is printed as lowercase hexadecimal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, realm, err := a.newDeriver(realmFlag)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, true)
			if err != nil {
				return err
			}
			defer internal.ClearSlice(&password)

			fields, err := form.NewRegistration(d, realm).Submit(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			if !showForm {
				fmt.Fprintln(cmd.OutOrStdout(), fields.Password)
				return nil
			}

			out, err := yaml.Marshal(formOutput{
				Username:             fields.Username,
				Password:             fields.Password,
				PasswordConfirmation: fields.PasswordConfirmation,
			})
			if err != nil {
				return fmt.Errorf("failed to encode form: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(out))

			return nil
		},
	}

	cmd.Flags().StringVarP(&realmFlag, "realm", "r", "", "realm to derive in (defaults to the configured realm)")
	cmd.Flags().BoolVar(&showForm, "form", false, "print the registration form fields as YAML")

	return cmd
}

func (a *app) newVerifyCmd() *cobra.Command {
	var realmFlag string

	cmd := &cobra.Command{
		Use:   "verify <username> <public-key>",
		Short: "Check that a public key was derived from a password",
		Long: `Derive the public key for the username and password, and compare it to the given key in
constant time. The command fails if the keys differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, realm, err := a.newDeriver(realmFlag)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, false)
			if err != nil {
				return err
			}
			defer internal.ClearSlice(&password)

			ok, err := d.Verify(args[0], password, realm, args[1])
			if err != nil {
				return err
			}

			if !ok {
				return errKeyMismatch
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")

			return nil
		},
	}

	cmd.Flags().StringVarP(&realmFlag, "realm", "r", "", "realm to verify in (defaults to the configured realm)")

	return cmd
}
