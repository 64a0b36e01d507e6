// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package regkey_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bytemare/regkey"
)

const (
	username = "alice"
	password = "correct horse battery staple"

	// Derived with the default configuration, for alice in the ZERO realm.
	alicePublicKey = "93160335523a67ba603a2c8d022008fa6f59c4b01f3b83b764b98c023d0ef537" +
		"b733f79f4e06dbed26480e15db4314dc425293ffcdc064d284c475d5f1f5b51a"
	aliceSecretKey      = "eebe9ca59ff05b16abc999bdee1dfe3e5f13dd9f2779d992e2ee710fba8cfd10"
	aliceCapitalizedKey = "50494c09c3501236a28fc4083d3fda3fa47cf1a0da0f2fa3ff392e065011175f" +
		"1742a5319dc9f52c1bd4eb80e84ab1c719cb339c77d0083db2d32fc5c693aab7"
	aliceRejectionKey = "c74208d71a0aef4be362ae6aa93a5bd62aea6f44544162573998fba7e5570167" +
		"3cc8b013226bfc5253d475618bebe3547f8e7a120bc2ffb546a07474cd08626e"

	// Derived with N = 16 and r = 1.
	aliceFastKey = "f0b7fdde58d79d5a4661267f73a7e92c1dad6fd012858ec64db9c62cf3a42afa" +
		"297b52f4b34ce114a5dc01329733458b8abbbe6f462b3def0dc56c74fb539840"
	aliceFastCompressed = "02f0b7fdde58d79d5a4661267f73a7e92c1dad6fd012858ec64db9c62cf3a42afa"
	aliceFastSecretKey  = "ab34a714edd1ec36f58e25aa853d472ab5e51fb2cfff095cc73de4798e047331"
	bobFastKey          = "e79a02df0168a7e73d1f2b9b6f994cf2bc157a63a42c9f2434fbbc6bd1070f86" +
		"7eb48f1680719c67a26931ddfabd7bf106ca795f6793f22ccc3c13e8a9e38bc8"
)

// fastConfiguration returns the default configuration with a minimal scrypt cost, for tests only.
func fastConfiguration() *regkey.Configuration {
	conf := regkey.DefaultConfiguration()
	conf.CostFactor = 4
	conf.BlockSize = 1

	return conf
}

func newDeriver(t *testing.T, conf *regkey.Configuration) *regkey.Deriver {
	t.Helper()

	d, err := regkey.NewDeriver(conf)
	if err != nil {
		t.Fatal(err)
	}

	return d
}

func derive(t *testing.T, d *regkey.Deriver, user, pass, realm string) string {
	t.Helper()

	pk, err := d.DerivePublicKey(user, []byte(pass), realm)
	if err != nil {
		t.Fatal(err)
	}

	return pk
}

func TestDerivePublicKey_Registration(t *testing.T) {
	d := newDeriver(t, regkey.DefaultConfiguration())

	p := derive(t, d, username, password, regkey.DefaultRealm)
	if p != alicePublicKey {
		t.Fatalf("unexpected public key %s", p)
	}

	pCapital := derive(t, d, username, "Correct horse battery staple", regkey.DefaultRealm)
	if pCapital != aliceCapitalizedKey {
		t.Fatalf("unexpected public key %s", pCapital)
	}

	if pCapital == p {
		t.Fatal("a different password must yield a different key")
	}

	if again := derive(t, d, username, password, regkey.DefaultRealm); again != p {
		t.Fatal("derivation is not deterministic")
	}
}

func TestDerivePublicKey_Rejection(t *testing.T) {
	conf := regkey.DefaultConfiguration()
	conf.Reduction = regkey.ReductionRejection

	if p := derive(t, newDeriver(t, conf), username, password, regkey.DefaultRealm); p != aliceRejectionKey {
		t.Fatalf("unexpected public key %s", p)
	}
}

func TestDerivePublicKey_NilConfiguration(t *testing.T) {
	d := newDeriver(t, nil)

	if d.Configuration().String() != regkey.DefaultConfiguration().String() {
		t.Fatalf("unexpected configuration %s", d.Configuration())
	}

	if d.PublicKeyLength() != 64 {
		t.Fatalf("unexpected public key length %d", d.PublicKeyLength())
	}
}

func TestDerivePublicKey_Sensitivity(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	reference := derive(t, d, username, password, regkey.DefaultRealm)
	if reference != aliceFastKey {
		t.Fatalf("unexpected public key %s", reference)
	}

	if bob := derive(t, d, "bob", password, regkey.DefaultRealm); bob != bobFastKey {
		t.Fatalf("unexpected public key %s", bob)
	}

	edits := []struct {
		name, user, pass, realm string
	}{
		{"username", "alicf", password, regkey.DefaultRealm},
		{"username case", "Alice", password, regkey.DefaultRealm},
		{"password", username, "correct horse battery stapl3", regkey.DefaultRealm},
		{"password prefix", username, password[:len(password)-1], regkey.DefaultRealm},
		{"realm", username, password, "ZER0"},
		{"realm case", username, password, "zero"},
	}

	seen := map[string]string{reference: "reference"}

	for _, e := range edits {
		pk := derive(t, d, e.user, e.pass, e.realm)
		if other, ok := seen[pk]; ok {
			t.Fatalf("edit of %s yields the same key as %s", e.name, other)
		}

		seen[pk] = e.name
	}
}

func TestDerivePublicKey_Encodings(t *testing.T) {
	conf := fastConfiguration()
	conf.Encoding = regkey.EncodingCompressed

	if pk := derive(t, newDeriver(t, conf), username, password, regkey.DefaultRealm); pk != aliceFastCompressed {
		t.Fatalf("unexpected compressed key %s", pk)
	}

	conf.Encoding = regkey.EncodingUncompressed

	if pk := derive(t, newDeriver(t, conf), username, password, regkey.DefaultRealm); pk != "04"+aliceFastKey {
		t.Fatalf("unexpected uncompressed key %s", pk)
	}
}

func TestDerivePublicKey_GroupBackend(t *testing.T) {
	for _, name := range []string{"secp256k1", "P-256", "P-384", "P-521"} {
		t.Run(name, func(t *testing.T) {
			conf := fastConfiguration()
			conf.Curve = name
			conf.KeyLength = 66

			generic := derive(t, newDeriver(t, conf), username, password, regkey.DefaultRealm)

			conf.Backend = regkey.BackendGroup
			group := derive(t, newDeriver(t, conf), username, password, regkey.DefaultRealm)

			if generic != group {
				t.Fatalf("backends disagree: %s != %s", generic, group)
			}
		})
	}
}

func TestDerivePublicKeyBytes(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	b, err := d.DerivePublicKeyBytes(username, []byte(password), regkey.DefaultRealm)
	if err != nil {
		t.Fatal(err)
	}

	if hex.EncodeToString(b) != aliceFastKey {
		t.Fatalf("unexpected public key %x", b)
	}
}

func TestDeriveKeyPair(t *testing.T) {
	conf := fastConfiguration()
	conf.Encoding = regkey.EncodingCompressed

	sk, pk, err := newDeriver(t, conf).DeriveKeyPair(username, []byte(password), regkey.DefaultRealm)
	if err != nil {
		t.Fatal(err)
	}

	if hex.EncodeToString(sk) != aliceFastSecretKey {
		t.Fatalf("unexpected secret key %x", sk)
	}

	if !bytes.Equal(secp256k1.PrivKeyFromBytes(sk).PubKey().SerializeCompressed(), pk) {
		t.Fatal("the public key does not match the secret key")
	}
}

func TestDerivePublicKey_PasswordUntouched(t *testing.T) {
	d := newDeriver(t, fastConfiguration())
	pw := []byte(password)

	if _, err := d.DerivePublicKey(username, pw, regkey.DefaultRealm); err != nil {
		t.Fatal(err)
	}

	if string(pw) != password {
		t.Fatal("the caller's password was modified")
	}
}

func TestDerivePublicKey_InvalidInput(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	tests := []struct {
		name, user, pass, realm string
	}{
		{"empty username", "", password, regkey.DefaultRealm},
		{"empty password", username, "", regkey.DefaultRealm},
		{"empty realm", username, password, ""},
		{"separator in username", "ali|ce", password, regkey.DefaultRealm},
		{"separator in realm", username, password, "ZE|RO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := d.DerivePublicKey(tt.user, []byte(tt.pass), tt.realm)
			if !errors.Is(err, regkey.ErrInvalidParameters) {
				t.Fatalf("expected %q, got %v", regkey.ErrInvalidParameters, err)
			}

			if pk != "" {
				t.Fatal("no key may be returned on error")
			}
		})
	}
}

// With a multi-byte separator, the separator can also form across the join: ("a|", "ZERO") and ("a", "|ZERO") would
// both salt as "a|||ZERO" under "||".
func TestDerivePublicKey_MultiByteSeparator(t *testing.T) {
	conf := fastConfiguration()
	conf.Separator = "||"
	d := newDeriver(t, conf)

	for _, in := range [][2]string{{"a|", "ZERO"}, {"a", "|ZERO"}} {
		if _, err := d.DerivePublicKey(in[0], []byte(password), in[1]); !errors.Is(err, regkey.ErrInvalidParameters) {
			t.Fatalf("(%q, %q): expected %q, got %v", in[0], in[1], regkey.ErrInvalidParameters, err)
		}
	}

	if derive(t, d, "a", password, "ZERO") == derive(t, d, "a", password, "Z|ERO") {
		t.Fatal("distinct realms derive the same key")
	}
}

func TestDerivePublicKey_Concurrent(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	var wg sync.WaitGroup

	results := make([]string, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = d.DerivePublicKey(username, []byte(password), regkey.DefaultRealm)
		}()
	}

	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}

		if results[i] != aliceFastKey {
			t.Fatalf("goroutine %d derived %s", i, results[i])
		}
	}
}

func TestDerivePublicKeyContext(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	pk, err := d.DerivePublicKeyContext(context.Background(), username, []byte(password), regkey.DefaultRealm)
	if err != nil {
		t.Fatal(err)
	}

	if pk != aliceFastKey {
		t.Fatalf("unexpected public key %s", pk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err = d.DerivePublicKeyContext(ctx, username, []byte(password), regkey.DefaultRealm); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected %q, got %v", context.Canceled, err)
	}

	if _, err = d.DerivePublicKeyContext(context.Background(), "", []byte(password), regkey.DefaultRealm); !errors.Is(err, regkey.ErrInvalidParameters) {
		t.Fatalf("expected %q, got %v", regkey.ErrInvalidParameters, err)
	}
}

func TestVerify(t *testing.T) {
	d := newDeriver(t, fastConfiguration())

	ok, err := d.Verify(username, []byte(password), regkey.DefaultRealm, aliceFastKey)
	if err != nil {
		t.Fatal(err)
	}

	if !ok {
		t.Fatal("expected the key to verify")
	}

	// Upper case hex designates the same key.
	if ok, err = d.Verify(username, []byte(password), regkey.DefaultRealm, strings.ToUpper(aliceFastKey)); err != nil || !ok {
		t.Fatalf("expected the key to verify, got %v, %v", ok, err)
	}

	if ok, err = d.Verify(username, []byte("wrong"), regkey.DefaultRealm, aliceFastKey); err != nil || ok {
		t.Fatalf("expected a mismatch, got %v, %v", ok, err)
	}

	if ok, err = d.Verify("bob", []byte(password), regkey.DefaultRealm, aliceFastKey); err != nil || ok {
		t.Fatalf("expected a mismatch, got %v, %v", ok, err)
	}

	if _, err = d.Verify(username, []byte(password), regkey.DefaultRealm, "00"); !errors.Is(err, regkey.ErrMalformedEncoding) {
		t.Fatalf("expected %q, got %v", regkey.ErrMalformedEncoding, err)
	}
}

func TestValidatePublicKey(t *testing.T) {
	conf := fastConfiguration()
	d := newDeriver(t, conf)

	for _, validate := range []func(string) error{conf.ValidatePublicKey, d.ValidatePublicKey} {
		if err := validate(aliceFastKey); err != nil {
			t.Fatal(err)
		}

		invalid := []string{
			"",
			"zz",
			aliceFastKey[:64],
			"04" + aliceFastKey,
			aliceFastKey[:64] + strings.Repeat("0", 63) + "1",
		}

		for _, in := range invalid {
			if err := validate(in); !errors.Is(err, regkey.ErrMalformedEncoding) {
				t.Fatalf("expected %q for %q, got %v", regkey.ErrMalformedEncoding, in, err)
			}
		}
	}
}

type recordingHandler struct {
	records *[]slog.Record
	mu      *sync.Mutex
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	*h.records = append(*h.records, r)

	return nil
}

func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h recordingHandler) WithGroup(string) slog.Handler { return h }

func TestWithLogger_NoSecrets(t *testing.T) {
	var records []slog.Record

	logger := slog.New(recordingHandler{records: &records, mu: &sync.Mutex{}})

	d, err := regkey.NewDeriver(fastConfiguration(), regkey.WithLogger(logger), regkey.WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}

	pk := derive(t, d, username, password, regkey.DefaultRealm)

	if len(records) == 0 {
		t.Fatal("expected debug records")
	}

	for _, r := range records {
		r.Attrs(func(a slog.Attr) bool {
			v := a.Value.String()
			if strings.Contains(v, password) || strings.Contains(v, aliceFastSecretKey) || strings.Contains(v, pk) {
				t.Fatalf("record %q leaks a secret in %q", r.Message, a.Key)
			}

			return true
		})
	}
}

func TestWithLogger_NotMemoryHard(t *testing.T) {
	var records []slog.Record

	logger := slog.New(recordingHandler{records: &records, mu: &sync.Mutex{}})

	conf := regkey.DefaultConfiguration()
	conf.KSF, _ = regkey.ParseKSF("pbkdf2")
	conf.CostFactor, conf.BlockSize, conf.Parallelization, conf.Rounds = 0, 0, 0, 10

	if _, err := regkey.NewDeriver(conf, regkey.WithLogger(logger)); err != nil {
		t.Fatal(err)
	}

	if len(records) != 1 || records[0].Level != slog.LevelWarn {
		t.Fatalf("expected one warning, got %d records", len(records))
	}
}
