// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package form binds a key derivation to a registration form submission: it guards against double submission and
// fills the credential fields with the derived public key.
package form

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	// ErrSubmissionInProgress indicates that a derivation is already running for this form.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")

	// ErrNoDeriver indicates a Registration without a Deriver.
	ErrNoDeriver = errors.New("registration has no deriver")
)

// Guard allows at most one submission at a time. The zero value is ready to use. A Guard must not be copied.
type Guard struct {
	busy atomic.Bool
}

// Begin returns true and marks the guard busy if no submission is in progress, and false otherwise.
func (g *Guard) Begin() bool {
	return g.busy.CompareAndSwap(false, true)
}

// End releases the guard.
func (g *Guard) End() {
	g.busy.Store(false)
}

// InProgress returns whether a submission holds the guard.
func (g *Guard) InProgress() bool {
	return g.busy.Load()
}

// Deriver derives the public key submitted in place of a password. *regkey.Deriver implements it.
type Deriver interface {
	DerivePublicKeyContext(ctx context.Context, username string, password []byte, realm string) (string, error)
}

// Fields holds the values of the registration form, as submitted.
type Fields struct {
	Username             string
	Password             string
	PasswordConfirmation string
}

// Registration is the state of one registration form. It is safe for concurrent use.
type Registration struct {
	deriver Deriver
	realm   string
	guard   Guard
}

// NewRegistration returns a Registration deriving keys with d in realm.
func NewRegistration(d Deriver, realm string) *Registration {
	return &Registration{deriver: d, realm: realm}
}

// Submit derives the public key for the username and password, and returns the form fields to send: both password
// fields carry the public key, never the password. A Submit while another one runs fails with ErrSubmissionInProgress.
// On any error, no fields are returned and the form must not be sent.
func (r *Registration) Submit(ctx context.Context, username string, password []byte) (*Fields, error) {
	if r.deriver == nil {
		return nil, ErrNoDeriver
	}

	if !r.guard.Begin() {
		return nil, ErrSubmissionInProgress
	}
	defer r.guard.End()

	pk, err := r.deriver.DerivePublicKeyContext(ctx, username, password, r.realm)
	if err != nil {
		return nil, err
	}

	return &Fields{
		Username:             username,
		Password:             pk,
		PasswordConfirmation: pk,
	}, nil
}

// InProgress returns whether a submission is running.
func (r *Registration) InProgress() bool {
	return r.guard.InProgress()
}
