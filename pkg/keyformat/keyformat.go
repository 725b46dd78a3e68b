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

// Package keyformat converts cryptographic keys between JWK, PEM, OpenSSH
// and SSH2 encodings.
//
// Decode and Encode dispatch to the codec bound to a Format. Detect
// recognizes the format of unlabeled input:
//
//	key, err := keyformat.DecodeAuto(data)
//	if err != nil {
//	    return err
//	}
//	out, err := keyformat.Encode(keyformat.JWK, key)
//
// The package functions use each codec's default options and do no
// logging or instrumentation. Converter adds both.
package keyformat

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/openssh"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/pem"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/ssh2"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// Format identifies a key encoding.
type Format = keys.Format

// Supported formats.
const (
	JWK     = keys.FormatJWK
	PEM     = keys.FormatPEM
	OpenSSH = keys.FormatOpenSSH
	SSH2    = keys.FormatSSH2
)

// Formats lists the supported formats in detection order.
var Formats = []Format{JWK, PEM, OpenSSH, SSH2}

// ParseFormat resolves a case-insensitive format name. "ssh" is accepted
// for OpenSSH and "rfc4716" for SSH2.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jwk", "jwks":
		return JWK, nil
	case "pem":
		return PEM, nil
	case "openssh", "ssh":
		return OpenSSH, nil
	case "ssh2", "rfc4716":
		return SSH2, nil
	}
	return keys.FormatNone, fmt.Errorf("%w: %q", keys.ErrUnknownFormat, name)
}

// Decode parses data in the given format.
func Decode(format Format, data []byte) (*keys.Key, error) {
	switch format {
	case JWK:
		return jwk.Decode(data)
	case PEM:
		return pem.Decode(data)
	case OpenSSH:
		return openssh.Decode(data)
	case SSH2:
		return ssh2.Decode(data)
	}
	return nil, fmt.Errorf("%w: %s", keys.ErrUnknownFormat, format)
}

// Encode writes key in the given format.
func Encode(format Format, key *keys.Key) ([]byte, error) {
	return defaultConverter.encode(format, key)
}

// Detect returns the format of data. JSON objects, including
// base64url-wrapped ones, are JWK. PEM envelopes are PEM except the
// OpenSSH private key container. OpenSSH public key lines and RFC 4716
// envelopes follow.
func Detect(data []byte) (Format, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '{' || jwk.IsWrapped(trimmed):
		return JWK, nil
	case openssh.IsPrivateKey(trimmed):
		return OpenSSH, nil
	case pem.IsPEM(trimmed):
		return PEM, nil
	case openssh.IsPublicKey(trimmed):
		return OpenSSH, nil
	case ssh2.IsSSH2(trimmed):
		return SSH2, nil
	}
	return keys.FormatNone, fmt.Errorf("%w: input matches no supported key format", keys.ErrUnknownFormat)
}

// DecodeAuto detects the format of data and decodes it.
func DecodeAuto(data []byte) (*keys.Key, error) {
	format, err := Detect(data)
	if err != nil {
		return nil, err
	}
	return Decode(format, data)
}
