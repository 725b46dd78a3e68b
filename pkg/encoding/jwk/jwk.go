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

// Package jwk implements the JSON Web Key codec (RFC 7517, RFC 7518) for
// RSA, DSA, EC and oct keys, including JWK Set containers and RFC 7638
// thumbprints.
package jwk

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// KeyType represents the key type (kty) parameter values
type KeyType string

const (
	KeyTypeRSA KeyType = "RSA"
	KeyTypeDSA KeyType = "DSA"
	KeyTypeEC  KeyType = "EC"
	KeyTypeOct KeyType = "oct"
)

// InvalidJWKError wraps any decode failure together with the JSON text that
// was being decoded.
type InvalidJWKError struct {
	JSON string
	Err  error
}

func (e *InvalidJWKError) Error() string {
	return fmt.Sprintf("invalid JWK: %v", e.Err)
}

func (e *InvalidJWKError) Unwrap() error {
	return e.Err
}

// Decode parses a JWK, a JWK Set (the first key is used) or either of them
// wrapped in base64url.
func Decode(data []byte) (*keys.Key, error) {
	text := Unwrap(data)
	key, err := decodeDocument(text)
	if err != nil {
		return nil, &InvalidJWKError{JSON: string(text), Err: err}
	}
	return key, nil
}

// DecodeSet parses every key of a JWK Set. A single JWK yields one key.
func DecodeSet(data []byte) ([]*keys.Key, error) {
	text := Unwrap(data)
	obj, err := parseObject(text)
	if err != nil {
		return nil, &InvalidJWKError{JSON: string(text), Err: err}
	}
	raw, ok := obj["keys"]
	if !ok {
		key, err := decodeObject(obj)
		if err != nil {
			return nil, &InvalidJWKError{JSON: string(text), Err: err}
		}
		return []*keys.Key{key}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &InvalidJWKError{JSON: string(text), Err: fmt.Errorf("%w: \"keys\" is not an array", keys.ErrMalformedInput)}
	}
	if len(elems) == 0 {
		return nil, &InvalidJWKError{JSON: string(text), Err: keys.ErrEmptyKeySet}
	}
	out := make([]*keys.Key, 0, len(elems))
	for i, elem := range elems {
		member, err := parseObject(elem)
		if err != nil {
			return nil, &InvalidJWKError{JSON: string(elem), Err: fmt.Errorf("keys[%d]: %w", i, err)}
		}
		key, err := decodeObject(member)
		if err != nil {
			return nil, &InvalidJWKError{JSON: string(elem), Err: fmt.Errorf("keys[%d]: %w", i, err)}
		}
		out = append(out, key)
	}
	return out, nil
}

// Unwrap strips an optional base64url envelope. Content is treated as
// wrapped when it starts with 'e' (the first base64 character of '{') but
// not with "ecdsa", which is an OpenSSH key. Anything else, including
// content that fails to decode, is returned trimmed and unchanged.
func Unwrap(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !IsWrapped(trimmed) {
		return trimmed
	}
	decoded, err := decodeBase64URL(string(trimmed))
	if err != nil {
		return trimmed
	}
	return bytes.TrimSpace(decoded)
}

// IsWrapped reports whether data looks like a base64url encoded JSON
// object.
func IsWrapped(data []byte) bool {
	return len(data) > 0 && data[0] == 'e' && !bytes.HasPrefix(data, []byte("ecdsa"))
}

func decodeDocument(text []byte) (*keys.Key, error) {
	obj, err := parseObject(text)
	if err != nil {
		return nil, err
	}
	if raw, ok := obj["keys"]; ok {
		obj, err = selectFirst(raw)
		if err != nil {
			return nil, err
		}
	}
	return decodeObject(obj)
}

// selectFirst returns the first element of a "keys" array, or the member
// itself when it is an object.
func selectFirst(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, fmt.Errorf("%w: %w", keys.ErrMalformedInput, err)
		}
		if len(elems) == 0 {
			return nil, keys.ErrEmptyKeySet
		}
		obj, err := parseObject(elems[0])
		if err != nil {
			return nil, fmt.Errorf("keys[0]: %w", err)
		}
		return obj, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		return parseObject(trimmed)
	default:
		return nil, fmt.Errorf("%w: \"keys\" must be an array or an object", keys.ErrMalformedInput)
	}
}

func parseObject(text []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", keys.ErrMalformedInput)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", keys.ErrMalformedInput, err)
	}
	return obj, nil
}

func decodeObject(obj map[string]json.RawMessage) (*keys.Key, error) {
	m := members(obj)
	kty, ok, err := m.string("kty")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &keys.MissingFieldError{Algorithm: "JWK", Fields: []string{"kty"}}
	}

	var material keys.Material
	switch {
	case strings.EqualFold(kty, string(KeyTypeRSA)):
		material, err = decodeRSA(m)
	case strings.EqualFold(kty, string(KeyTypeOct)):
		material, err = decodeOct(m)
	case kty == string(KeyTypeDSA):
		material, err = decodeDSA(m)
	case kty == string(KeyTypeEC):
		material, err = decodeEC(m)
	default:
		return nil, &keys.UnsupportedKtyError{Kty: kty}
	}
	if err != nil {
		return nil, err
	}

	attrs, err := m.attributes()
	if err != nil {
		return nil, err
	}
	return keys.New(material, keys.FormatJWK, attrs), nil
}

func decodeRSA(m members) (keys.Material, error) {
	var p keys.RSAParams
	err := errors.Join(
		m.bigInt("n", &p.Modulus),
		m.bigInt("e", &p.PublicExponent),
		m.bigInt("d", &p.PrivateExponent),
		m.bigInt("p", &p.PrimeP),
		m.bigInt("q", &p.PrimeQ),
		m.bigInt("dp", &p.PrimeExponentP),
		m.bigInt("dq", &p.PrimeExponentQ),
		m.bigInt("qi", &p.CRTCoefficient),
	)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func decodeDSA(m members) (keys.Material, error) {
	var p keys.DSAParams
	err := errors.Join(
		m.bigInt("p", &p.P),
		m.bigInt("q", &p.Q),
		m.bigInt("g", &p.G),
		m.bigInt("x", &p.X),
		m.bigInt("y", &p.Y),
	)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func decodeEC(m members) (keys.Material, error) {
	var p keys.ECParams
	crv, ok, err := m.string("crv")
	if err != nil {
		return nil, err
	}
	if ok {
		if p.Curve, err = curve.Resolve(crv); err != nil {
			return nil, err
		}
	}
	err = errors.Join(
		m.bigInt("d", &p.D),
		m.bigInt("x", &p.X),
		m.bigInt("y", &p.Y),
	)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func decodeOct(m members) (keys.Material, error) {
	k, err := m.bytes("k")
	if err != nil {
		return nil, err
	}
	alg, _, err := m.string("alg")
	if err != nil {
		return nil, err
	}
	return keys.NewSecretKey(k, alg)
}

// members gives typed access to the members of a JSON object. Members with
// a JSON null value are treated as absent.
type members map[string]json.RawMessage

func (m members) raw(name string) (json.RawMessage, bool) {
	raw, ok := m[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (m members) string(name string) (string, bool, error) {
	raw, ok := m.raw(name)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, fmt.Errorf("%w: %q is not a string", keys.ErrMalformedInput, name)
	}
	return s, true, nil
}

func (m members) bytes(name string) ([]byte, error) {
	s, ok, err := m.string(name)
	if err != nil || !ok {
		return nil, err
	}
	b, err := decodeBase64URL(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", keys.ErrMalformedInput, name, err)
	}
	return b, nil
}

// bigInt decodes a base64url number as an unsigned big-endian magnitude.
func (m members) bigInt(name string, dst **big.Int) error {
	b, err := m.bytes(name)
	if err != nil || b == nil {
		return err
	}
	*dst = new(big.Int).SetBytes(b)
	return nil
}

// attributes returns every member as a string. String values are
// unquoted; other values keep their compact JSON text.
func (m members) attributes() (map[string]string, error) {
	attrs := make(map[string]string, len(m))
	for name := range m {
		raw, ok := m.raw(name)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			attrs[name] = s
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("%w: %w", keys.ErrMalformedInput, err)
		}
		attrs[name] = buf.String()
	}
	return attrs, nil
}

func decodeBase64URL(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	return base64.RawURLEncoding.DecodeString(s)
}
