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

package der

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Encode returns tag, a minimal-length header and content.
func Encode(tag byte, content []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.Tag(tag), func(c *cryptobyte.Builder) {
		c.AddBytes(content)
	})
	return b.BytesOrPanic()
}

// Sequence concatenates already encoded elements inside a SEQUENCE.
func Sequence(elements ...[]byte) []byte {
	return Encode(TagSequence, concat(elements))
}

// Explicit wraps an encoded element in context-specific tag [n].
func Explicit(n int, element []byte) []byte {
	return Encode(ContextTag(n), element)
}

// Integer encodes v as a DER INTEGER. A zero octet is prepended only when
// the high bit of the leading magnitude octet is set.
func Integer(v *big.Int) []byte {
	var b cryptobyte.Builder
	b.AddASN1BigInt(v)
	return b.BytesOrPanic()
}

// Int encodes a small integer.
func Int(v int64) []byte {
	var b cryptobyte.Builder
	b.AddASN1Int64(v)
	return b.BytesOrPanic()
}

// OctetString encodes content as an OCTET STRING.
func OctetString(content []byte) []byte {
	return Encode(TagOctetString, content)
}

// BitString encodes content as a BIT STRING with no unused bits.
func BitString(content []byte) []byte {
	body := make([]byte, 0, len(content)+1)
	body = append(body, 0)
	body = append(body, content...)
	return Encode(TagBitString, body)
}

// Null encodes an ASN.1 NULL.
func Null() []byte {
	return []byte{TagNull, 0}
}

// ObjectIdentifier encodes oid.
func ObjectIdentifier(oid asn1.ObjectIdentifier) []byte {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid)
	return b.BytesOrPanic()
}

// OID decodes the object as an OBJECT IDENTIFIER.
func (o Object) OID() (asn1.ObjectIdentifier, error) {
	if o.Tag != TagOID {
		return nil, fmt.Errorf("%w: expected OBJECT IDENTIFIER, found tag 0x%02x", ErrTypeMismatch, o.Tag)
	}
	var oid asn1.ObjectIdentifier
	s := cryptobyte.String(o.Raw())
	if !s.ReadASN1ObjectIdentifier(&oid) {
		return nil, fmt.Errorf("%w: invalid OBJECT IDENTIFIER", ErrMalformed)
	}
	return oid, nil
}

// BitString decodes the object as a BIT STRING with no unused bits, which
// is the only form used for key material.
func (o Object) BitString() ([]byte, error) {
	if o.Tag != TagBitString {
		return nil, fmt.Errorf("%w: expected BIT STRING, found tag 0x%02x", ErrTypeMismatch, o.Tag)
	}
	var bs asn1.BitString
	s := cryptobyte.String(o.Raw())
	if !s.ReadASN1BitString(&bs) {
		return nil, fmt.Errorf("%w: invalid BIT STRING", ErrMalformed)
	}
	if bs.BitLength%8 != 0 {
		return nil, fmt.Errorf("%w: BIT STRING is not octet aligned", ErrMalformed)
	}
	return bs.Bytes, nil
}

// OctetString returns the content of an OCTET STRING.
func (o Object) OctetString() ([]byte, error) {
	if o.Tag != TagOctetString {
		return nil, fmt.Errorf("%w: expected OCTET STRING, found tag 0x%02x", ErrTypeMismatch, o.Tag)
	}
	return o.Bytes(), nil
}

func concat(parts [][]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
