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

package pem

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

var oidPrimeField = asn1.ObjectIdentifier{1, 2, 840, 10045, 1, 1}

// ECPrivateKey ::= SEQUENCE {
//	version        INTEGER { ecPrivkeyVer1(1) },
//	privateKey     OCTET STRING,
//	parameters [0] ECParameters OPTIONAL,
//	publicKey  [1] BIT STRING OPTIONAL }
//
// outer carries the curve from an enclosing PKCS#8 structure; it is nil for
// a standalone SEC 1 key, which must then name its own parameters.
func decodeSEC1(data []byte, outer *curve.Curve) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	if _, err := readVersion(seq, 1); err != nil {
		return nil, err
	}
	octets, err := seq.ReadTag(der.TagOctetString)
	if err != nil {
		return nil, err
	}

	p := keys.ECParams{Curve: outer, D: new(big.Int).SetBytes(octets.Bytes())}
	var point []byte
	for seq.More() {
		o, err := seq.Read()
		if err != nil {
			return nil, err
		}
		switch {
		case o.IsContext(0):
			inner, err := o.Parser()
			if err != nil {
				return nil, err
			}
			params, err := inner.Read()
			if err != nil {
				return nil, err
			}
			c, err := readECParameters(params)
			if err != nil {
				return nil, err
			}
			if outer != nil && c != outer {
				return nil, fmt.Errorf("%w: curve %s conflicts with %s", keys.ErrInvalidKey, c.Name, outer.Name)
			}
			p.Curve = c
		case o.IsContext(1):
			inner, err := o.Parser()
			if err != nil {
				return nil, err
			}
			bits, err := inner.Read()
			if err != nil {
				return nil, err
			}
			if point, err = bits.BitString(); err != nil {
				return nil, err
			}
		}
	}

	if p.Curve != nil && point != nil {
		if p.X, p.Y, err = p.Curve.UnmarshalPoint(point); err != nil {
			return nil, fmt.Errorf("%w: %w", keys.ErrInvalidKey, err)
		}
	}
	return p.BuildPrivate()
}

// marshalSEC1 writes an ECPrivateKey. The public key is included when it is
// known or derivable.
func marshalSEC1(k *keys.ECPrivateKey, withParams, explicit bool) []byte {
	size := (k.Curve.Params.N.BitLen() + 7) / 8
	if k.D.BitLen() > size*8 {
		size = (k.D.BitLen() + 7) / 8
	}
	fields := [][]byte{
		der.Int(1),
		der.OctetString(k.D.FillBytes(make([]byte, size))),
	}
	if withParams {
		fields = append(fields, der.Explicit(0, marshalECParameters(k.Curve, explicit)))
	}
	if x, y, err := k.PublicPoint(); err == nil {
		fields = append(fields, der.Explicit(1, der.BitString(k.Curve.MarshalPoint(x, y))))
	}
	return der.Sequence(fields...)
}

// ECParameters ::= CHOICE {
//	namedCurve    OBJECT IDENTIFIER,
//	implicitCurve NULL,
//	specifiedCurve SpecifiedECDomain }
func readECParameters(o der.Object) (*curve.Curve, error) {
	switch o.Tag {
	case der.TagOID:
		oid, err := o.OID()
		if err != nil {
			return nil, err
		}
		return curve.ByOID(oid)
	case der.TagSequence:
		return readSpecifiedCurve(o)
	case der.TagNull:
		return nil, fmt.Errorf("%w: implicit curve parameters", keys.ErrUnsupportedCurve)
	}
	return nil, fmt.Errorf("%w: EC parameters with tag 0x%02x", der.ErrTypeMismatch, o.Tag)
}

// SpecifiedECDomain ::= SEQUENCE {
//	version  INTEGER,
//	fieldID  SEQUENCE { fieldType OBJECT IDENTIFIER, parameters ANY },
//	curve    SEQUENCE { a OCTET STRING, b OCTET STRING, seed BIT STRING OPTIONAL },
//	base     OCTET STRING,
//	order    INTEGER,
//	cofactor INTEGER OPTIONAL, ... }
func readSpecifiedCurve(o der.Object) (*curve.Curve, error) {
	seq, err := o.Parser()
	if err != nil {
		return nil, err
	}
	if _, err := seq.ReadInteger(); err != nil {
		return nil, err
	}

	field, err := seq.ReadSequence()
	if err != nil {
		return nil, err
	}
	fieldType, err := field.ReadTag(der.TagOID)
	if err != nil {
		return nil, err
	}
	oid, err := fieldType.OID()
	if err != nil {
		return nil, err
	}
	if !oid.Equal(oidPrimeField) {
		return nil, fmt.Errorf("%w: field type %s", keys.ErrUnsupportedCurve, oid)
	}
	var params curve.Params
	if params.P, err = field.ReadInteger(); err != nil {
		return nil, err
	}

	coeffs, err := seq.ReadSequence()
	if err != nil {
		return nil, err
	}
	for _, f := range []**big.Int{&params.A, &params.B} {
		o, err := coeffs.ReadTag(der.TagOctetString)
		if err != nil {
			return nil, err
		}
		*f = new(big.Int).SetBytes(o.Bytes())
	}

	base, err := seq.ReadTag(der.TagOctetString)
	if err != nil {
		return nil, err
	}
	if params.Gx, params.Gy, err = params.UnmarshalPoint(base.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: base point: %w", keys.ErrUnsupportedCurve, err)
	}
	if params.N, err = seq.ReadInteger(); err != nil {
		return nil, err
	}

	params.Cofactor = 1
	if seq.More() {
		h, err := seq.ReadInteger()
		if err != nil {
			return nil, err
		}
		if !h.IsInt64() || h.Int64() < 1 || h.Int64() > 1<<16 {
			return nil, fmt.Errorf("%w: cofactor %s", keys.ErrUnsupportedCurve, h)
		}
		params.Cofactor = int(h.Int64())
	}

	return curve.Lookup(params)
}

func marshalECParameters(c *curve.Curve, explicit bool) []byte {
	if !explicit {
		return der.ObjectIdentifier(c.OID)
	}
	size := c.ByteSize()
	p := c.Params
	return der.Sequence(
		der.Int(1),
		der.Sequence(der.ObjectIdentifier(oidPrimeField), der.Integer(p.P)),
		der.Sequence(
			der.OctetString(p.A.FillBytes(make([]byte, size))),
			der.OctetString(p.B.FillBytes(make([]byte, size))),
		),
		der.OctetString(c.MarshalPoint(p.Gx, p.Gy)),
		der.Integer(p.N),
		der.Int(int64(p.Cofactor)),
	)
}
