// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package regkey

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/bytemare/ksf"

	"github.com/bytemare/regkey/internal/codec"
	"github.com/bytemare/regkey/internal/curve"
	"github.com/bytemare/regkey/internal/encoding"
	internalKSF "github.com/bytemare/regkey/internal/ksf"
	"github.com/bytemare/regkey/internal/salt"
	"github.com/bytemare/regkey/internal/scalar"
)

const (
	// DefaultCurve is the curve used when none is configured.
	DefaultCurve = curve.Secp256k1

	// DefaultRealm is the realm registrations are derived for by default.
	DefaultRealm = "ZERO"

	// DefaultSeparator joins the username and the realm in the salt.
	DefaultSeparator = "|"

	// DefaultCostFactor is the default log2 of the scrypt CPU/memory cost, i.e. N = 16384.
	DefaultCostFactor = 14

	// DefaultBlockSize is the default scrypt block size r.
	DefaultBlockSize = 8

	// DefaultParallelization is the default scrypt parallelization factor p.
	DefaultParallelization = 1

	// DefaultKeyLength is the default byte length of the stretched key.
	DefaultKeyLength = 32

	// DefaultRounds is the default number of rounds. Scrypt does not use it for its output.
	DefaultRounds = 5000

	maxVectorLength = math.MaxUint16
	maxKeyLength    = math.MaxUint16
)

var (
	errSeparatorLength = errors.New("separator is too long")
	errKeyTooShort     = errors.New("key length is shorter than a scalar of the curve")
	errFieldTooLarge   = errors.New("parameter exceeds its encoding range")
	errNoConfiguration = errors.New("nil configuration")
	errCustomName      = errors.New("custom curve parameters need a name")
	errTrailingData    = errors.New("trailing data after configuration")
	errUnknownCurveTag = errors.New("unknown curve tag")
)

// Reduction selects how stretched key bytes are mapped to a private scalar.
type Reduction byte

const (
	// ReductionModular computes (int(bytes) mod (N-1)) + 1. This is the default.
	ReductionModular = Reduction(scalar.Modular)

	// ReductionRejection takes the first in-range candidate of an HKDF-SHA256 expansion of the bytes. It is unbiased.
	ReductionRejection = Reduction(scalar.Rejection)
)

// Available returns whether the reduction policy is supported.
func (r Reduction) Available() bool {
	return scalar.Policy(r).Available()
}

// String returns the name of the reduction policy.
func (r Reduction) String() string {
	return scalar.Policy(r).String()
}

// ParseReduction returns the reduction policy registered under name.
func ParseReduction(name string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ReductionModular.String():
		return ReductionModular, nil
	case ReductionRejection.String():
		return ReductionRejection, nil
	default:
		return 0, ErrInvalidParameters.Join(fmt.Errorf("%w: %q", scalar.ErrPolicy, name))
	}
}

// Encoding selects the wire format of public keys.
type Encoding byte

const (
	// EncodingRaw is X || Y without prefix. This is the default.
	EncodingRaw = Encoding(codec.Raw)

	// EncodingUncompressed is the SEC1 uncompressed form 0x04 || X || Y.
	EncodingUncompressed = Encoding(codec.Uncompressed)

	// EncodingCompressed is the SEC1 compressed form 0x02/0x03 || X.
	EncodingCompressed = Encoding(codec.Compressed)
)

// Available returns whether the encoding is supported.
func (e Encoding) Available() bool {
	return codec.Format(e).Available()
}

// String returns the name of the encoding.
func (e Encoding) String() string {
	return codec.Format(e).String()
}

// ParseEncoding returns the encoding registered under name.
func ParseEncoding(name string) (Encoding, error) {
	f, err := codec.ParseFormat(name)
	if err != nil {
		return 0, ErrInvalidParameters.Join(err)
	}

	return Encoding(f), nil
}

// Backend selects the scalar multiplication implementation.
type Backend byte

const (
	// BackendGeneric is the constant-time ladder over the injected domain parameters. This is the default.
	BackendGeneric Backend = 1 + iota

	// BackendGroup is the dedicated prime-order group implementation, available for secp256k1, P-256, P-384 and P-521.
	BackendGroup
)

// Available returns whether the backend is supported.
func (b Backend) Available() bool {
	return b == BackendGeneric || b == BackendGroup
}

// String returns the name of the backend.
func (b Backend) String() string {
	switch b {
	case BackendGeneric:
		return "generic"
	case BackendGroup:
		return "group"
	default:
		return fmt.Sprintf("Backend(%d)", byte(b))
	}
}

// ParseBackend returns the backend registered under name.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendGeneric.String():
		return BackendGeneric, nil
	case BackendGroup.String():
		return BackendGroup, nil
	default:
		return 0, ErrInvalidParameters.Join(fmt.Errorf("unknown backend %q", name))
	}
}

// ParseKSF returns the key stretching function registered under name.
func ParseKSF(name string) (ksf.Identifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scrypt":
		return ksf.Scrypt, nil
	case "argon2id":
		return ksf.Argon2id, nil
	case "pbkdf2", "pbkdf2-sha512":
		return ksf.PBKDF2Sha512, nil
	default:
		return 0, ErrInvalidParameters.Join(fmt.Errorf("%w: %q", internalKSF.ErrUnsupported, name))
	}
}

// Curves returns the names of the built-in curves.
func Curves() []string {
	return curve.Names()
}

// CurveParams holds the domain parameters of a short Weierstrass curve y² = x³ + ax + b over GF(P), with a base point
// (Gx, Gy) of prime order N and cofactor H.
type CurveParams struct {
	P       *big.Int
	A       *big.Int
	B       *big.Int
	Gx, Gy  *big.Int
	N       *big.Int
	Name    string
	H       int
	BitSize int
}

func (p *CurveParams) internal() *curve.Params {
	return &curve.Params{
		P: p.P, A: p.A, B: p.B, Gx: p.Gx, Gy: p.Gy, N: p.N,
		Name: p.Name, H: p.H, BitSize: p.BitSize,
	}
}

// Configuration holds the parameters of a derivation. Two parties deriving with equal configurations, usernames,
// passwords and realms obtain the same key.
type Configuration struct {
	// CustomCurve, if set, replaces the named Curve with explicit domain parameters.
	CustomCurve *CurveParams

	// Curve is the name of a built-in curve. Aliases such as "k256" or "P-256" are accepted.
	Curve string

	// Separator joins the username and the realm into the salt. Neither may contain it.
	Separator string

	// The cost parameters of the KSF. See the ksf package for their meaning with each function.
	CostFactor      int
	BlockSize       int
	Parallelization int
	KeyLength       int
	Rounds          int

	KSF       ksf.Identifier
	Reduction Reduction
	Encoding  Encoding
	Backend   Backend
}

// DefaultConfiguration returns a configuration compatible with the historical registration form: scrypt with N = 2^14,
// r = 8, p = 1 and 32-byte output, on secp256k1, with raw X || Y public keys.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Curve:           DefaultCurve,
		Separator:       DefaultSeparator,
		KSF:             ksf.Scrypt,
		CostFactor:      DefaultCostFactor,
		BlockSize:       DefaultBlockSize,
		Parallelization: DefaultParallelization,
		KeyLength:       DefaultKeyLength,
		Rounds:          DefaultRounds,
		Reduction:       ReductionModular,
		Encoding:        EncodingRaw,
		Backend:         BackendGeneric,
	}
}

// Copy returns a deep copy of the configuration.
func (c *Configuration) Copy() *Configuration {
	cp := *c
	if c.CustomCurve != nil {
		p := c.CustomCurve.internal().Copy()
		cp.CustomCurve = &CurveParams{
			P: p.P, A: p.A, B: p.B, Gx: p.Gx, Gy: p.Gy, N: p.N,
			Name: p.Name, H: p.H, BitSize: p.BitSize,
		}
	}

	return &cp
}

// Verify returns an error if the configuration can't be used to derive keys.
func (c *Configuration) Verify() error {
	_, err := c.build()
	return err
}

// CurveName returns the canonical name of the configured curve.
func (c *Configuration) CurveName() string {
	if c.CustomCurve != nil {
		return c.CustomCurve.Name
	}

	if n, err := curve.CanonicalName(c.Curve); err == nil {
		return n
	}

	return c.Curve
}

// String returns a human-readable summary of the configuration.
func (c *Configuration) String() string {
	return fmt.Sprintf("%s-%s(%d,%d,%d,%d,%d)-%s-%s-%s",
		c.CurveName(), ksfName(c.KSF), c.CostFactor, c.BlockSize, c.Parallelization, c.KeyLength, c.Rounds,
		c.Reduction, c.Encoding, c.Backend)
}

func ksfName(id ksf.Identifier) string {
	switch id {
	case ksf.Scrypt:
		return "scrypt"
	case ksf.Argon2id:
		return "argon2id"
	case ksf.PBKDF2Sha512:
		return "pbkdf2-sha512"
	default:
		return fmt.Sprintf("KSF(%d)", byte(id))
	}
}

// components holds the validated stages of a derivation.
type components struct {
	curve   *curve.Curve
	engine  curve.Engine
	ksf     *internalKSF.KSF
	reducer *scalar.Reducer
	codec   *codec.Codec
}

func (c *Configuration) newCurve() (*curve.Curve, error) {
	if c.CustomCurve != nil {
		if c.CustomCurve.Name == "" {
			return nil, ErrInvalidCurve.Join(errCustomName)
		}

		cu, err := curve.New(c.CustomCurve.internal())
		if err != nil {
			return nil, ErrInvalidCurve.Join(err)
		}

		return cu, nil
	}

	cu, err := curve.NewNamed(c.Curve)
	if err != nil {
		return nil, ErrInvalidCurve.Join(err)
	}

	return cu, nil
}

func (c *Configuration) verifyRanges() error {
	if err := salt.ValidateSeparator([]byte(c.Separator)); err != nil {
		return ErrInvalidParameters.Join(err)
	}

	if len(c.Separator) > maxVectorLength {
		return ErrInvalidParameters.Join(errSeparatorLength)
	}

	if c.KeyLength > maxKeyLength {
		return ErrInvalidParameters.Join(internalKSF.ErrKeyLength, errFieldTooLarge)
	}

	for _, v := range []int{c.CostFactor, c.BlockSize, c.Parallelization, c.Rounds} {
		if v < 0 || uint64(v) > math.MaxUint32 {
			return ErrInvalidParameters.Join(errFieldTooLarge)
		}
	}

	if p := c.CustomCurve; p != nil {
		if p.H < 0 || p.H > math.MaxUint16 || p.BitSize < 0 || p.BitSize > math.MaxUint16 ||
			len(p.Name) > maxVectorLength {
			return ErrInvalidCurve.Join(errFieldTooLarge)
		}
	}

	if !c.Reduction.Available() {
		return ErrInvalidParameters.Join(fmt.Errorf("%w: %d", scalar.ErrPolicy, c.Reduction))
	}

	if !c.Encoding.Available() {
		return ErrInvalidParameters.Join(fmt.Errorf("%w: %d", codec.ErrFormat, c.Encoding))
	}

	if !c.Backend.Available() {
		return ErrInvalidParameters.Join(fmt.Errorf("unknown backend %d", c.Backend))
	}

	return nil
}

func (c *Configuration) build() (*components, error) {
	if c == nil {
		return nil, ErrInvalidParameters.Join(errNoConfiguration)
	}

	if err := c.verifyRanges(); err != nil {
		return nil, err
	}

	k, err := internalKSF.NewKSF(c.KSF, internalKSF.Parameters{
		CostFactor:      c.CostFactor,
		BlockSize:       c.BlockSize,
		Parallelization: c.Parallelization,
		KeyLength:       c.KeyLength,
		Rounds:          c.Rounds,
	})
	if err != nil {
		return nil, ErrInvalidParameters.Join(err)
	}

	cu, err := c.newCurve()
	if err != nil {
		return nil, err
	}

	if c.KeyLength < cu.ScalarLength() {
		return nil, ErrInvalidParameters.Join(internalKSF.ErrKeyLength,
			fmt.Errorf("%w: %d < %d", errKeyTooShort, c.KeyLength, cu.ScalarLength()))
	}

	reducer, err := scalar.NewReducer(cu.Order(), scalar.Policy(c.Reduction))
	if err != nil {
		return nil, ErrInvalidParameters.Join(err)
	}

	cd, err := codec.New(cu, codec.Format(c.Encoding))
	if err != nil {
		return nil, ErrInvalidParameters.Join(err)
	}

	var engine curve.Engine = cu

	if c.Backend == BackendGroup {
		if c.CustomCurve != nil {
			return nil, ErrInvalidCurve.Join(curve.ErrNoGroup)
		}

		g, err := curve.NewGroupEngine(cu)
		if err != nil {
			return nil, ErrInvalidCurve.Join(err)
		}

		engine = g
	}

	return &components{
		curve:   cu,
		engine:  engine,
		ksf:     k,
		reducer: reducer,
		codec:   cd,
	}, nil
}

// ValidatePublicKey verifies that encoded is the hex text form of a valid public key under this configuration: it
// decodes in the configured format to a point on the curve that is not the identity. It does not tell whether the key
// was derived from any particular password.
//
// Each call validates the configuration and its curve again, which includes primality tests and a full scalar
// multiplication. To validate many keys, create a Deriver once and use (*Deriver).ValidatePublicKey.
func (c *Configuration) ValidatePublicKey(encoded string) error {
	comp, err := c.build()
	if err != nil {
		return err
	}

	if _, err = comp.codec.DecodeString(encoded); err != nil {
		return ErrMalformedEncoding.Join(err)
	}

	return nil
}

const (
	curveTagNamed  = 0
	curveTagCustom = 1
)

// Serialize returns the byte encoding of the configuration. The configuration must be valid, as reported by Verify.
func (c *Configuration) Serialize() []byte {
	b := encoding.Concatenate(
		[]byte{byte(c.KSF), byte(c.Reduction), byte(c.Encoding), byte(c.Backend)},
		encoding.I2OSP(c.CostFactor, 1),
		encoding.I2OSP(c.BlockSize, 4),
		encoding.I2OSP(c.Parallelization, 4),
		encoding.I2OSP(c.KeyLength, 2),
		encoding.I2OSP(c.Rounds, 4),
		encoding.EncodeVector([]byte(c.Separator)),
	)

	if c.CustomCurve == nil {
		return encoding.Concatenate(b, []byte{curveTagNamed}, encoding.EncodeVector([]byte(c.CurveName())))
	}

	p := c.CustomCurve

	return encoding.Concatenate(b,
		[]byte{curveTagCustom},
		encoding.EncodeVector([]byte(p.Name)),
		encoding.EncodeVector(p.P.Bytes()),
		encoding.EncodeVector(p.A.Bytes()),
		encoding.EncodeVector(p.B.Bytes()),
		encoding.EncodeVector(p.Gx.Bytes()),
		encoding.EncodeVector(p.Gy.Bytes()),
		encoding.EncodeVector(p.N.Bytes()),
		encoding.I2OSP(p.H, 2),
		encoding.I2OSP(p.BitSize, 2),
	)
}

const configurationHeaderLength = 4 + 1 + 4 + 4 + 2 + 4

// DeserializeConfiguration decodes the input and returns the configuration, if it is valid.
func DeserializeConfiguration(encoded []byte) (*Configuration, error) {
	if len(encoded) < configurationHeaderLength {
		return nil, ErrMalformedEncoding.Join(encoding.ErrDecoding)
	}

	c := &Configuration{
		KSF:             ksf.Identifier(encoded[0]),
		Reduction:       Reduction(encoded[1]),
		Encoding:        Encoding(encoded[2]),
		Backend:         Backend(encoded[3]),
		CostFactor:      encoding.OS2IP(encoded[4:5]),
		BlockSize:       encoding.OS2IP(encoded[5:9]),
		Parallelization: encoding.OS2IP(encoded[9:13]),
		KeyLength:       encoding.OS2IP(encoded[13:15]),
		Rounds:          encoding.OS2IP(encoded[15:19]),
	}

	sep, rest, err := encoding.DecodeVector(encoded[configurationHeaderLength:])
	if err != nil {
		return nil, ErrMalformedEncoding.Join(err)
	}

	c.Separator = string(sep)

	if err = c.decodeCurve(rest); err != nil {
		return nil, ErrMalformedEncoding.Join(err)
	}

	if err = c.Verify(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Configuration) decodeCurve(in []byte) error {
	if len(in) == 0 {
		return encoding.ErrDecoding
	}

	tag, in := in[0], in[1:]

	switch tag {
	case curveTagNamed:
		name, rest, err := encoding.DecodeVector(in)
		if err != nil {
			return err
		}

		if len(rest) != 0 {
			return errTrailingData
		}

		c.Curve = string(name)

		return nil
	case curveTagCustom:
		return c.decodeCustomCurve(in)
	default:
		return fmt.Errorf("%w: %d", errUnknownCurveTag, tag)
	}
}

func (c *Configuration) decodeCustomCurve(in []byte) error {
	name, in, err := encoding.DecodeVector(in)
	if err != nil {
		return err
	}

	values := make([]*big.Int, 6)
	for i := range values {
		var v []byte
		if v, in, err = encoding.DecodeVector(in); err != nil {
			return err
		}

		values[i] = new(big.Int).SetBytes(v)
	}

	if len(in) != 4 {
		return encoding.ErrDecoding
	}

	c.CustomCurve = &CurveParams{
		Name:    string(name),
		P:       values[0],
		A:       values[1],
		B:       values[2],
		Gx:      values[3],
		Gy:      values[4],
		N:       values[5],
		H:       encoding.OS2IP(in[:2]),
		BitSize: encoding.OS2IP(in[2:]),
	}

	return nil
}
