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

// OpenSSL DSAPrivateKey ::= SEQUENCE {
//	version INTEGER (0), p, q, g, pub_key y, priv_key x }
func decodeDSAPrivate(data []byte) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	if _, err := readVersion(seq, 0); err != nil {
		return nil, err
	}

	var p keys.DSAParams
	for _, f := range []**big.Int{&p.P, &p.Q, &p.G, &p.Y, &p.X} {
		if *f, err = seq.ReadInteger(); err != nil {
			return nil, err
		}
	}

	priv, err := p.BuildPrivate()
	if err != nil {
		return nil, err
	}
	if priv.Public().Y.Cmp(p.Y) != 0 {
		return nil, fmt.Errorf("%w: DSA public value does not match private value", keys.ErrInvalidKey)
	}
	return priv, nil
}

func marshalDSAPrivate(k *keys.DSAPrivateKey) []byte {
	return der.Sequence(
		der.Int(0),
		der.Integer(k.P),
		der.Integer(k.Q),
		der.Integer(k.G),
		der.Integer(k.Public().Y),
		der.Integer(k.X),
	)
}

// Dss-Parms ::= SEQUENCE { p INTEGER, q INTEGER, g INTEGER }
func readDSSParams(o der.Object) (keys.DSAParams, error) {
	seq, err := o.Parser()
	if err != nil {
		return keys.DSAParams{}, err
	}
	var p keys.DSAParams
	for _, f := range []**big.Int{&p.P, &p.Q, &p.G} {
		if *f, err = seq.ReadInteger(); err != nil {
			return keys.DSAParams{}, err
		}
	}
	return p, nil
}

func marshalDSSParams(d keys.DSADomain) []byte {
	return der.Sequence(der.Integer(d.P), der.Integer(d.Q), der.Integer(d.G))
}
