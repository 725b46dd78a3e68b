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
	"fmt"
	"math/big"

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// RSAPrivateKey ::= SEQUENCE {
//	version Version, modulus, publicExponent, privateExponent,
//	prime1, prime2, exponent1, exponent2, coefficient,
//	otherPrimeInfos OtherPrimeInfos OPTIONAL }
func decodePKCS1Private(data []byte) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	version, err := readVersion(seq, 0, 1)
	if err != nil {
		return nil, err
	}
	if version == 1 {
		return nil, fmt.Errorf("%w: multi-prime RSA", keys.ErrUnsupportedKeyVariant)
	}

	var p keys.RSAParams
	fields := []**big.Int{
		&p.Modulus,
		&p.PublicExponent,
		&p.PrivateExponent,
		&p.PrimeP,
		&p.PrimeQ,
		&p.PrimeExponentP,
		&p.PrimeExponentQ,
		&p.CRTCoefficient,
	}
	for _, f := range fields {
		if *f, err = seq.ReadInteger(); err != nil {
			return nil, err
		}
	}
	return p.BuildPrivate()
}

func marshalPKCS1Private(k *keys.RSAPrivateKey) []byte {
	return der.Sequence(
		der.Int(0),
		der.Integer(k.N),
		der.Integer(k.E),
		der.Integer(k.D),
		der.Integer(k.P),
		der.Integer(k.Q),
		der.Integer(k.DP),
		der.Integer(k.DQ),
		der.Integer(k.QI),
	)
}

// RSAPublicKey ::= SEQUENCE { modulus INTEGER, publicExponent INTEGER }
func decodePKCS1Public(data []byte) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	return readPKCS1Public(seq)
}

func readPKCS1Public(seq *der.Parser) (keys.Material, error) {
	n, err := seq.ReadInteger()
	if err != nil {
		return nil, err
	}
	e, err := seq.ReadInteger()
	if err != nil {
		return nil, err
	}
	return keys.RSAParams{Modulus: n, PublicExponent: e}.BuildPublic()
}

func marshalPKCS1Public(k *keys.RSAPublicKey) []byte {
	return der.Sequence(der.Integer(k.N), der.Integer(k.E))
}
