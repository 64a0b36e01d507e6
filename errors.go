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
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrInvalidParameters indicates that the cost parameters or the configuration are invalid. This is a caller error.
	ErrInvalidParameters = ErrCodeInvalidParameters.New("")

	// ErrInvalidCurve indicates that the curve domain parameters are malformed or unknown.
	ErrInvalidCurve = ErrCodeInvalidCurve.New("")

	// ErrDegenerateScalar indicates that the derived private scalar is zero.
	ErrDegenerateScalar = ErrCodeDegenerateScalar.New("")

	// ErrPointAtInfinity indicates that the derived public point is the identity element.
	ErrPointAtInfinity = ErrCodePointAtInfinity.New("")

	// ErrMalformedEncoding indicates that an encoded public key could not be decoded.
	ErrMalformedEncoding = ErrCodeMalformedEncoding.New("")

	// ErrInternalInvariantViolation indicates a state that should be impossible, and must be reported as a defect.
	ErrInternalInvariantViolation = ErrCodeInternalInvariantViolation.New("")
)

// ErrorCode represents the class of a derivation error. None of these are transient: derivation is deterministic, so
// a failure is a configuration or logic defect and must abort the registration.
type ErrorCode byte //nolint:errname // This is an error code, not an error type.

const (
	// ErrCodeUnknown represents an unknown error.
	ErrCodeUnknown ErrorCode = iota

	// ErrCodeInvalidParameters represents invalid cost parameters, configuration, or input.
	ErrCodeInvalidParameters

	// ErrCodeInvalidCurve represents malformed or unsupported curve domain parameters.
	ErrCodeInvalidCurve

	// ErrCodeDegenerateScalar represents a zero private scalar.
	ErrCodeDegenerateScalar

	// ErrCodePointAtInfinity represents a public key at the identity element.
	ErrCodePointAtInfinity

	// ErrCodeMalformedEncoding represents an invalid encoding.
	ErrCodeMalformedEncoding

	// ErrCodeInternalInvariantViolation represents a should-be-impossible state.
	ErrCodeInternalInvariantViolation
)

// New creates a new Error with the given message and errors.
func (c ErrorCode) New(message string, errs ...error) *Error {
	if message == "" {
		message = strings.ReplaceAll(c.String(), "_", " ")
	}

	return &Error{
		Code:    c,
		Message: message,
		Err:     errors.Join(errs...),
	}
}

// String returns the string representation of the ErrorCode. If the code is not recognized, it returns "unknown_error".
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknown:
		return "unknown_error"
	case ErrCodeInvalidParameters:
		return "invalid_parameters"
	case ErrCodeInvalidCurve:
		return "invalid_curve"
	case ErrCodeDegenerateScalar:
		return "degenerate_scalar"
	case ErrCodePointAtInfinity:
		return "point_at_infinity"
	case ErrCodeMalformedEncoding:
		return "malformed_encoding"
	case ErrCodeInternalInvariantViolation:
		return "internal_invariant_violation"
	default:
		return "unknown_error"
	}
}

// Error implements the error interface for the ErrorCode type. It returns a string representation of the error code.
func (c ErrorCode) Error() string {
	return c.String()
}

// Is implements the errors.Is method for the ErrorCode type.
// It allows checking if the error is of a specific ErrorCode.
func (c ErrorCode) Is(target error) bool {
	var errCode ErrorCode
	if errors.As(target, &errCode) {
		return byte(c) == byte(errCode)
	}

	var regkeyErr *Error
	if errors.As(target, &regkeyErr) {
		return byte(c) == byte(regkeyErr.Code)
	}

	return false
}

// As implements the errors.As method for the ErrorCode type. It allows type assertion to specific error types.
func (c ErrorCode) As(target any) bool {
	switch t := target.(type) {
	case ErrorCode:
		return true
	case *ErrorCode:
		*t = c
		return true
	default:
		return false
	}
}

// Error represents a key derivation error.
type Error struct {
	Err     error
	Message string
	Code    ErrorCode
}

// Error implements the error interface for the Error type. By convention, we return only the concise form of the
// current error, without the cause. The cause can be retrieved with the Unwrap() method.
func (e *Error) Error() string { return e.Message }

// Unwrap implements the errors.Unwrap method for the Error type. It allows retrieving the underlying error, if any.
func (e *Error) Unwrap() error { return e.Err }

// Join wraps the provided error to the current error.
func (e *Error) Join(errs ...error) error {
	return errors.Join(e, errors.Join(errs...))
}

// LogValue implements the slog.LogValuer interface for the Error type.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("code", int(e.Code)),
		slog.String("code_name", e.Code.String()),
		slog.String("message", e.Message),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// Format implements the fmt.Formatter interface for the Error type. It allows formatting the error in different ways.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			e.formatV(f)
			return
		}

		fallthrough
	case 's':
		_, _ = io.WriteString(f, e.Error()) //nolint:errcheck // human-readable
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error()) //nolint:errcheck // quoted string
	default:
		_, _ = io.WriteString(f, e.Error()) //nolint:errcheck // safe default
	}
}

// Is implements the errors.Is method for the Error type. Two errors match if they share the code and the message.
func (e *Error) Is(target error) bool {
	return e.Code.Is(target) && strings.EqualFold(e.Message, target.Error())
}

// As implements the errors.As method for the Error type. It allows type assertion to specific error types.
func (e *Error) As(target any) bool {
	switch t := target.(type) {
	case *ErrorCode:
		*t = e.Code
		return true
	case **Error:
		*t = e
		return true
	default:
		return false
	}
}

func printV(f fmt.State, err error, depth int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", depth)
	_, _ = fmt.Fprintf(f, "\n%s↳ %v", prefix, err) //nolint:errcheck // safe to ignore

	var multiUnwrapper interface{ Unwrap() []error }
	if errors.As(err, &multiUnwrapper) {
		for _, child := range multiUnwrapper.Unwrap() {
			printV(f, child, depth+1)
		}

		return
	}

	var singleUnwrapper interface{ Unwrap() error }
	if errors.As(err, &singleUnwrapper) {
		printV(f, singleUnwrapper.Unwrap(), depth+1)
	}
}

func (e *Error) formatV(f fmt.State) {
	_, _ = fmt.Fprintf(f, "code=%d(%s)", e.Code, e.Code.String()) //nolint:errcheck // safe to ignore
	if e.Message != "" {
		_, _ = fmt.Fprintf(f, " message=%q", e.Message) //nolint:errcheck // safe to ignore
	}

	if e.Err != nil {
		printV(f, e.Err, 0)
	}
}
