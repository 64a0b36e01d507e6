// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytemare/regkey"
	"github.com/bytemare/regkey/form"
)

// blockingDeriver waits for release before returning.
type blockingDeriver struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingDeriver) DerivePublicKeyContext(context.Context, string, []byte, string) (string, error) {
	close(b.started)
	<-b.release

	return "key", nil
}

func TestGuard(t *testing.T) {
	var g form.Guard

	assert.False(t, g.InProgress())
	assert.True(t, g.Begin())
	assert.False(t, g.Begin())
	assert.True(t, g.InProgress())

	g.End()

	assert.False(t, g.InProgress())
	assert.True(t, g.Begin())
}

func TestGuard_Concurrent(t *testing.T) {
	var (
		g    form.Guard
		wins sync.WaitGroup
		mu   sync.Mutex
		won  int
	)

	for range 32 {
		wins.Add(1)

		go func() {
			defer wins.Done()

			if g.Begin() {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}

	wins.Wait()
	assert.Equal(t, 1, won)
}

func TestSubmit(t *testing.T) {
	conf := regkey.DefaultConfiguration()
	conf.CostFactor = 4
	conf.BlockSize = 1

	d, err := regkey.NewDeriver(conf)
	require.NoError(t, err)

	expected, err := d.DerivePublicKey("alice", []byte("correct horse battery staple"), regkey.DefaultRealm)
	require.NoError(t, err)

	r := form.NewRegistration(d, regkey.DefaultRealm)

	fields, err := r.Submit(context.Background(), "alice", []byte("correct horse battery staple"))
	require.NoError(t, err)

	assert.Equal(t, "alice", fields.Username)
	assert.Equal(t, expected, fields.Password)
	assert.Equal(t, fields.Password, fields.PasswordConfirmation)
	assert.NotEqual(t, "correct horse battery staple", fields.Password)
	assert.False(t, r.InProgress())
}

func TestSubmit_Error(t *testing.T) {
	d, err := regkey.NewDeriver(nil)
	require.NoError(t, err)

	r := form.NewRegistration(d, regkey.DefaultRealm)

	fields, err := r.Submit(context.Background(), "", []byte("password"))
	require.ErrorIs(t, err, regkey.ErrInvalidParameters)
	assert.Nil(t, fields)
	assert.False(t, r.InProgress(), "the guard must be released on error")

	_, err = form.NewRegistration(nil, regkey.DefaultRealm).Submit(context.Background(), "alice", []byte("password"))
	require.ErrorIs(t, err, form.ErrNoDeriver)
}

func TestSubmit_InProgress(t *testing.T) {
	b := &blockingDeriver{started: make(chan struct{}), release: make(chan struct{})}
	r := form.NewRegistration(b, regkey.DefaultRealm)

	var (
		wg     sync.WaitGroup
		fields *form.Fields
		err    error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		fields, err = r.Submit(context.Background(), "alice", []byte("password"))
	}()

	<-b.started
	assert.True(t, r.InProgress())

	_, second := r.Submit(context.Background(), "alice", []byte("password"))
	require.True(t, errors.Is(second, form.ErrSubmissionInProgress))

	close(b.release)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, "key", fields.Password)
	assert.False(t, r.InProgress())
}
