// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bytemare/regkey"
	"github.com/bytemare/regkey/internal"
	"github.com/bytemare/regkey/internal/config"
)

// skipConfig marks commands that run without loading the configuration file.
const skipConfig = "skip-config"

var (
	errEmptyPassword    = errors.New("password cannot be empty")
	errPasswordMismatch = errors.New("passwords do not match")
)

// app holds the state shared by the commands of one invocation.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	cmd := &cobra.Command{
		Use:   "regkey",
		Short: "Derive registration public keys from passwords",
		Long: `regkey derives a deterministic elliptic curve public key from a username, a password and a
realm. The key is what a registration form sends in place of the password.

Derivation parameters are read from a YAML configuration file, and can be overridden
with REGKEY_ environment variables, e.g. REGKEY_DERIVATION_REALM.`,
		PersistentPreRunE: a.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "configuration file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug information to stderr")

	cmd.AddCommand(
		a.newDeriveCmd(),
		a.newVerifyCmd(),
		newCurvesCmd(),
		a.newConfigCmd(),
	)

	return cmd
}

// Execute runs the root command with args, and cancels running derivations on SIGINT and SIGTERM.
func Execute(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetArgs(args)

	return cmd.ExecuteContext(ctx)
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] != "" {
		return nil
	}

	cfg, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Logging, a.verbose)
	a.logger.Debug("configuration loaded", "path", a.configPath)

	return nil
}

func newLogger(w io.Writer, conf config.LoggingConfig, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: conf.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	if conf.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// newDeriver returns a Deriver for the loaded configuration, and the realm to derive in.
func (a *app) newDeriver(realm string) (*regkey.Deriver, string, error) {
	conf, err := a.cfg.ToConfiguration()
	if err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	d, err := regkey.NewDeriver(conf, regkey.WithLogger(a.logger))
	if err != nil {
		return nil, "", err
	}

	if realm == "" {
		realm = a.cfg.Derivation.Realm
	}

	return d, realm, nil
}

// readPassword prompts for the password without echo when stdin is a terminal, asking for it twice if confirm is set.
// Otherwise, it reads the first line of stdin. The caller must clear the returned password.
func readPassword(cmd *cobra.Command, confirm bool) ([]byte, error) {
	in := cmd.InOrStdin()

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readPasswordLine(in)
	}

	password, err := prompt(cmd, f, "Password: ")
	if err != nil {
		return nil, err
	}

	if !confirm {
		return password, nil
	}

	confirmation, err := prompt(cmd, f, "Confirm password: ")
	if err != nil {
		internal.ClearSlice(&password)
		return nil, err
	}
	defer internal.ClearSlice(&confirmation)

	if !bytes.Equal(password, confirmation) {
		internal.ClearSlice(&password)
		return nil, errPasswordMismatch
	}

	return password, nil
}

func prompt(cmd *cobra.Command, f *os.File, message string) ([]byte, error) {
	fmt.Fprint(cmd.ErrOrStderr(), message)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return nil, errEmptyPassword
	}

	return password, nil
}

func readPasswordLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		internal.ClearSlice(&line)
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	password := bytes.TrimRight(line, "\r\n")
	if len(password) == 0 {
		return nil, errEmptyPassword
	}

	return password, nil
}
