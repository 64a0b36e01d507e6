// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bytemare/regkey/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the regkey configuration",
		Long: `The config command writes and displays the derivation configuration.

Configuration is stored in YAML format, by default in the user configuration directory.`,
	}

	cmd.AddCommand(a.newConfigInitCmd(), a.newConfigShowCmd())

	return cmd
}

func (a *app) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Write(a.configPath, config.DefaultConfig(), force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", a.configPath)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	var serialized bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after applying defaults and environment overrides.

With --serialized, print the hexadecimal encoding of the derivation parameters instead. A
server can store it to pin the parameters its clients derive with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if serialized {
				conf, err := a.cfg.ToConfiguration()
				if err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(conf.Serialize()))

				return nil
			}

			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(out))

			return nil
		},
	}

	cmd.Flags().BoolVar(&serialized, "serialized", false, "print the serialized derivation parameters as hex")

	return cmd
}
