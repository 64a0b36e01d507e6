// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bytemare/regkey"
)

func newCurvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "curves",
		Short:       "List the built-in curves",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range regkey.Curves() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
