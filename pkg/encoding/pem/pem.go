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

// Package pem implements the PEM key codec: an RFC 1421 envelope around
// one of the standard DER key structures.
//
// Supported labels:
//
//	RSA PRIVATE KEY   PKCS#1 RSAPrivateKey
//	RSA PUBLIC KEY    PKCS#1 RSAPublicKey
//	DSA PRIVATE KEY   OpenSSL DSA private key
//	EC PRIVATE KEY    SEC 1 ECPrivateKey (named or explicit parameters)
//	PRIVATE KEY       PKCS#8 PrivateKeyInfo for RSA, DSA and EC
//	PUBLIC KEY        X.509 SubjectPublicKeyInfo for RSA, DSA and EC
//
// Encrypted keys are not supported. Envelope headers are decoded as key
// attributes and written back only when Encoder.Headers is set.
package pem

import (
	"bytes"
	stdpem "encoding/pem"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// PEM block types
const (
	TypeRSAPrivateKey       = "RSA PRIVATE KEY"
	TypeRSAPublicKey        = "RSA PUBLIC KEY"
	TypeDSAPrivateKey       = "DSA PRIVATE KEY"
	TypeECPrivateKey        = "EC PRIVATE KEY"
	TypeECParameters        = "EC PARAMETERS"
	TypePrivateKey          = "PRIVATE KEY"
	TypePublicKey           = "PUBLIC KEY"
	TypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	TypeOpenSSHPrivateKey   = "OPENSSH PRIVATE KEY"
)

// ErrInvalidSequence is returned when the outer DER node of a key
// structure is not a SEQUENCE.
var ErrInvalidSequence = errors.New("pem: outer DER node is not a SEQUENCE")

// IsPEM reports whether data contains a PEM envelope.
func IsPEM(data []byte) bool {
	block, _ := stdpem.Decode(data)
	return block != nil
}

// Label returns the label of the first PEM block in data that is not
// "EC PARAMETERS", or "" when there is none.
func Label(data []byte) string {
	block := firstKeyBlock(data)
	if block == nil {
		return ""
	}
	return block.Type
}

func firstKeyBlock(data []byte) *stdpem.Block {
	rest := data
	for {
		var block *stdpem.Block
		block, rest = stdpem.Decode(rest)
		if block == nil || block.Type != TypeECParameters {
			return block
		}
	}
}

// Decode parses the first PEM key block in data. A leading
// "EC PARAMETERS" block, as written by OpenSSL, is skipped.
func Decode(data []byte) (*keys.Key, error) {
	block := firstKeyBlock(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM envelope found", keys.ErrMalformedInput)
	}
	if strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED") {
		return nil, fmt.Errorf("%w: encrypted %s", keys.ErrUnsupportedKeyFormat, block.Type)
	}

	var (
		m   keys.Material
		err error
	)
	switch block.Type {
	case TypeRSAPrivateKey:
		m, err = decodePKCS1Private(block.Bytes)
	case TypeRSAPublicKey:
		m, err = decodePKCS1Public(block.Bytes)
	case TypeDSAPrivateKey:
		m, err = decodeDSAPrivate(block.Bytes)
	case TypeECPrivateKey:
		m, err = decodeSEC1(block.Bytes, nil)
	case TypePrivateKey:
		m, err = decodePKCS8(block.Bytes)
	case TypePublicKey:
		m, err = decodeSPKI(block.Bytes)
	case TypeEncryptedPrivateKey:
		return nil, fmt.Errorf("%w: %s", keys.ErrUnsupportedKeyFormat, block.Type)
	default:
		return nil, fmt.Errorf("%w: PEM label %q", keys.ErrUnsupportedKeyFormat, block.Type)
	}
	if err != nil {
		return nil, wrapDER(block.Type, err)
	}
	return keys.New(m, keys.FormatPEM, block.Headers), nil
}

// wrapDER tags DER framing failures as malformed input. Other errors pass
// through unchanged.
func wrapDER(label string, err error) error {
	if errors.Is(err, der.ErrMalformed) || errors.Is(err, der.ErrTypeMismatch) ||
		errors.Is(err, der.ErrTruncatedSequence) || errors.Is(err, ErrInvalidSequence) {
		return fmt.Errorf("%w: %s: %w", keys.ErrMalformedInput, label, err)
	}
	return err
}

// PrivateStyle selects the DER structure for private keys.
type PrivateStyle int

const (
	// Traditional writes the algorithm-specific structure: PKCS#1 for RSA,
	// the OpenSSL structure for DSA and SEC 1 for EC.
	Traditional PrivateStyle = iota

	// PKCS8 writes PKCS#8 PrivateKeyInfo.
	PKCS8
)

// PublicStyle selects the DER structure for public keys.
type PublicStyle int

const (
	// SPKI writes X.509 SubjectPublicKeyInfo.
	SPKI PublicStyle = iota

	// PKCS1 writes PKCS#1 RSAPublicKey for RSA keys. Other algorithms
	// fall back to SPKI.
	PKCS1
)

// Encoder writes keys as PEM. The zero value writes traditional private
// keys and SubjectPublicKeyInfo public keys.
type Encoder struct {
	Private PrivateStyle
	Public  PublicStyle

	// ExplicitCurve writes EC domain parameters in full instead of the
	// named curve OID.
	ExplicitCurve bool

	// Headers writes key attributes as RFC 1421 headers. OpenSSL rejects
	// headers other than Proc-Type, so this is off by default.
	Headers bool
}

// Encode writes key with the default Encoder.
func Encode(key *keys.Key) ([]byte, error) {
	return Encoder{}.Encode(key)
}

// Encode writes key as a single PEM block.
func (e Encoder) Encode(key *keys.Key) ([]byte, error) {
	label, body, err := e.marshal(key.Material())
	if err != nil {
		return nil, err
	}

	block := &stdpem.Block{Type: label, Bytes: body}
	if attrs := key.Attributes(); e.Headers && len(attrs) > 0 {
		block.Headers = maps.Clone(attrs)
	}

	var buf bytes.Buffer
	if err := stdpem.Encode(&buf, block); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}
	return buf.Bytes(), nil
}

func (e Encoder) marshal(m keys.Material) (string, []byte, error) {
	switch k := m.(type) {
	case *keys.RSAPrivateKey:
		if e.Private == PKCS8 {
			return TypePrivateKey, marshalPKCS8RSA(k), nil
		}
		return TypeRSAPrivateKey, marshalPKCS1Private(k), nil
	case *keys.RSAPublicKey:
		if e.Public == PKCS1 {
			return TypeRSAPublicKey, marshalPKCS1Public(k), nil
		}
		return TypePublicKey, marshalSPKIRSA(k), nil
	case *keys.DSAPrivateKey:
		if e.Private == PKCS8 {
			return TypePrivateKey, marshalPKCS8DSA(k), nil
		}
		return TypeDSAPrivateKey, marshalDSAPrivate(k), nil
	case *keys.DSAPublicKey:
		return TypePublicKey, marshalSPKIDSA(k), nil
	case *keys.ECPrivateKey:
		if e.Private == PKCS8 {
			return TypePrivateKey, marshalPKCS8EC(k, e.ExplicitCurve), nil
		}
		return TypeECPrivateKey, marshalSEC1(k, true, e.ExplicitCurve), nil
	case *keys.ECPublicKey:
		return TypePublicKey, marshalSPKIEC(k, e.ExplicitCurve), nil
	case *keys.SecretKey:
		return "", nil, fmt.Errorf("%w: secret keys have no PEM form", keys.ErrUnsupportedAlgorithm)
	}
	return "", nil, fmt.Errorf("%w: %T", keys.ErrUnsupportedKeyVariant, m)
}

// sequence reads the outer SEQUENCE of a DER structure and rejects
// trailing data.
func sequence(data []byte) (*der.Parser, error) {
	p := der.NewParser(data)
	o, err := p.Read()
	if err != nil {
		return nil, err
	}
	if o.Tag != der.TagSequence {
		return nil, fmt.Errorf("%w: found tag 0x%02x", ErrInvalidSequence, o.Tag)
	}
	if p.More() {
		return nil, fmt.Errorf("%w: trailing data after SEQUENCE", der.ErrMalformed)
	}
	return o.Parser()
}

// readVersion reads an INTEGER version field and checks it against the
// accepted values.
func readVersion(p *der.Parser, accepted ...int64) (int64, error) {
	v, err := p.ReadInteger()
	if err != nil {
		return 0, err
	}
	for _, a := range accepted {
		if v.IsInt64() && v.Int64() == a {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: version %s", keys.ErrUnsupportedKeyFormat, v)
}
