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

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// SubjectPublicKeyInfo ::= SEQUENCE {
//	algorithm        AlgorithmIdentifier,
//	subjectPublicKey BIT STRING }
func decodeSPKI(data []byte) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	alg, err := readAlgorithmIdentifier(seq)
	if err != nil {
		return nil, err
	}
	o, err := seq.ReadTag(der.TagBitString)
	if err != nil {
		return nil, err
	}
	bits, err := o.BitString()
	if err != nil {
		return nil, err
	}

	switch {
	case alg.isRSA():
		inner, err := sequence(bits)
		if err != nil {
			return nil, err
		}
		return readPKCS1Public(inner)
	case alg.OID.Equal(oidDSA):
		params, err := alg.dssParams()
		if err != nil {
			return nil, err
		}
		if params.Y, err = der.NewParser(bits).ReadInteger(); err != nil {
			return nil, err
		}
		return params.BuildPublic()
	case alg.OID.Equal(oidECPublicKey):
		c, err := alg.curve()
		if err != nil {
			return nil, err
		}
		x, y, err := c.UnmarshalPoint(bits)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", keys.ErrInvalidKey, err)
		}
		return keys.ECParams{Curve: c, X: x, Y: y}.BuildPublic()
	}
	return nil, fmt.Errorf("%w: public key algorithm %s", keys.ErrUnsupportedAlgorithm, alg.OID)
}

func marshalSPKI(algorithm []byte, publicKey []byte) []byte {
	return der.Sequence(algorithm, der.BitString(publicKey))
}

func marshalSPKIRSA(k *keys.RSAPublicKey) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidRSAEncryption), der.Null())
	return marshalSPKI(alg, marshalPKCS1Public(k))
}

func marshalSPKIDSA(k *keys.DSAPublicKey) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidDSA), marshalDSSParams(k.DSADomain))
	return marshalSPKI(alg, der.Integer(k.Y))
}

func marshalSPKIEC(k *keys.ECPublicKey, explicit bool) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidECPublicKey), marshalECParameters(k.Curve, explicit))
	return marshalSPKI(alg, k.Curve.MarshalPoint(k.X, k.Y))
}
