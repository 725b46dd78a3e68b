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

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// Algorithm identifiers
var (
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidRSAPSS        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	oidDSA           = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	oidECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
)

// algorithmIdentifier is a decoded AlgorithmIdentifier. Params is the
// zero Object when the parameters are absent.
type algorithmIdentifier struct {
	OID       asn1.ObjectIdentifier
	Params    der.Object
	HasParams bool
}

// AlgorithmIdentifier ::= SEQUENCE {
//	algorithm  OBJECT IDENTIFIER,
//	parameters ANY DEFINED BY algorithm OPTIONAL }
func readAlgorithmIdentifier(p *der.Parser) (algorithmIdentifier, error) {
	seq, err := p.ReadSequence()
	if err != nil {
		return algorithmIdentifier{}, err
	}
	o, err := seq.ReadTag(der.TagOID)
	if err != nil {
		return algorithmIdentifier{}, err
	}
	oid, err := o.OID()
	if err != nil {
		return algorithmIdentifier{}, err
	}
	alg := algorithmIdentifier{OID: oid}
	if seq.More() {
		if alg.Params, err = seq.Read(); err != nil {
			return algorithmIdentifier{}, err
		}
		alg.HasParams = alg.Params.Tag != der.TagNull
	}
	return alg, nil
}

func (a algorithmIdentifier) isRSA() bool {
	return a.OID.Equal(oidRSAEncryption) || a.OID.Equal(oidRSAPSS)
}

func (a algorithmIdentifier) curve() (*curve.Curve, error) {
	if !a.HasParams {
		return nil, &keys.MissingFieldError{Algorithm: "EC", Fields: []string{"crv"}}
	}
	return readECParameters(a.Params)
}

func (a algorithmIdentifier) dssParams() (keys.DSAParams, error) {
	if !a.HasParams {
		return keys.DSAParams{}, nil
	}
	return readDSSParams(a.Params)
}

// PrivateKeyInfo ::= SEQUENCE {
//	version             INTEGER (0 or 1),
//	privateKeyAlgorithm AlgorithmIdentifier,
//	privateKey          OCTET STRING,
//	attributes      [0] Attributes OPTIONAL,
//	publicKey       [1] BIT STRING OPTIONAL }
func decodePKCS8(data []byte) (keys.Material, error) {
	seq, err := sequence(data)
	if err != nil {
		return nil, err
	}
	if _, err := readVersion(seq, 0, 1); err != nil {
		return nil, err
	}
	alg, err := readAlgorithmIdentifier(seq)
	if err != nil {
		return nil, err
	}
	octets, err := seq.ReadTag(der.TagOctetString)
	if err != nil {
		return nil, err
	}
	inner := octets.Bytes()

	switch {
	case alg.isRSA():
		return decodePKCS1Private(inner)
	case alg.OID.Equal(oidDSA):
		params, err := alg.dssParams()
		if err != nil {
			return nil, err
		}
		if params.X, err = der.NewParser(inner).ReadInteger(); err != nil {
			return nil, err
		}
		return params.BuildPrivate()
	case alg.OID.Equal(oidECPublicKey):
		c, err := alg.curve()
		if err != nil {
			return nil, err
		}
		return decodeSEC1(inner, c)
	}
	return nil, fmt.Errorf("%w: PKCS#8 algorithm %s", keys.ErrUnsupportedAlgorithm, alg.OID)
}

func marshalPKCS8(algorithm []byte, privateKey []byte) []byte {
	return der.Sequence(
		der.Int(0),
		algorithm,
		der.OctetString(privateKey),
	)
}

func marshalPKCS8RSA(k *keys.RSAPrivateKey) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidRSAEncryption), der.Null())
	return marshalPKCS8(alg, marshalPKCS1Private(k))
}

func marshalPKCS8DSA(k *keys.DSAPrivateKey) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidDSA), marshalDSSParams(k.DSADomain))
	return marshalPKCS8(alg, der.Integer(k.X))
}

func marshalPKCS8EC(k *keys.ECPrivateKey, explicit bool) []byte {
	alg := der.Sequence(der.ObjectIdentifier(oidECPublicKey), marshalECParameters(k.Curve, explicit))
	return marshalPKCS8(alg, marshalSEC1(k, false, explicit))
}
