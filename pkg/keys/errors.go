// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyformat.
//
// go-keyformat is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
)

var (
	// ErrMalformedInput is returned for truncated or invalid framing at the
	// byte level: DER headers, length-prefixed fields, PEM envelopes, base64.
	ErrMalformedInput = errors.New("keyformat: malformed input")

	// ErrMissingField is returned when a required algorithm field is absent.
	ErrMissingField = errors.New("keyformat: missing field")

	// ErrInvalidFieldCombination is returned when fields are present but
	// mutually inconsistent.
	ErrInvalidFieldCombination = errors.New("keyformat: invalid field combination")

	// ErrUnsupportedAlgorithm is returned when a format cannot carry the
	// key's algorithm, or an algorithm identifier is not supported.
	ErrUnsupportedAlgorithm = errors.New("keyformat: unsupported algorithm")

	// ErrUnsupportedKty is returned for JWK "kty" values other than RSA,
	// oct, DSA and EC.
	ErrUnsupportedKty = errors.New("keyformat: unsupported kty")

	// ErrUnsupportedKeyFormat is returned for recognized framing carrying an
	// unsupported identifier or container variant.
	ErrUnsupportedKeyFormat = errors.New("keyformat: unsupported key format")

	// ErrUnsupportedCurve is returned when EC parameters or a curve name
	// match no registered curve.
	ErrUnsupportedCurve = curve.ErrUnsupportedCurve

	// ErrUnknownFormat is returned when format detection fails.
	ErrUnknownFormat = errors.New("keyformat: unknown format")

	// ErrUnsupportedKeyVariant is returned when a native key does not expose
	// the fields its algorithm requires.
	ErrUnsupportedKeyVariant = errors.New("keyformat: unsupported key variant")

	// ErrEmptyKeySet is returned for a JWKS whose "keys" array is empty.
	ErrEmptyKeySet = errors.New("keyformat: empty key set")

	// ErrInvalidKey is returned when parameters are present and complete but
	// do not describe a usable key (a point off its curve, an exponent that
	// does not fit the platform integer).
	ErrInvalidKey = errors.New("keyformat: invalid key")
)

// MissingFieldError lists every absent field of a parameter set.
type MissingFieldError struct {
	// Algorithm names the parameter set, e.g. "RSA".
	Algorithm string

	// Fields are the absent field names, in declaration order.
	Fields []string

	// Combination is set when the fields belong to a group that must be
	// supplied all together (RSA private fields) or of which one member is
	// required (DSA x or y). Such errors also match ErrInvalidFieldCombination.
	Combination bool
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", e.Algorithm, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is match ErrMissingField, and ErrInvalidFieldCombination
// for group violations.
func (e *MissingFieldError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return true
	case ErrInvalidFieldCombination:
		return e.Combination
	}
	return false
}

func missing(algorithm string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &MissingFieldError{Algorithm: algorithm, Fields: fields}
}

// UnsupportedKtyError carries the rejected JWK "kty" value.
type UnsupportedKtyError struct {
	Kty string
}

func (e *UnsupportedKtyError) Error() string {
	return fmt.Sprintf("unsupported kty: %q", e.Kty)
}

// Is lets errors.Is match ErrUnsupportedKty.
func (e *UnsupportedKtyError) Is(target error) bool {
	return target == ErrUnsupportedKty
}
