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
	"math/big"
)

// RSAParams is the parameter bag accepted by the RSA builder. Absent
// fields are nil.
type RSAParams struct {
	Modulus         *big.Int // n
	PublicExponent  *big.Int // e
	PrivateExponent *big.Int // d
	PrimeP          *big.Int // p
	PrimeQ          *big.Int // q
	PrimeExponentP  *big.Int // dp
	PrimeExponentQ  *big.Int // dq
	CRTCoefficient  *big.Int // qi
}

// RSAPublicKey is an RSA public key.
type RSAPublicKey struct {
	N *big.Int
	E *big.Int
}

// RSAPrivateKey is an RSA private key with its full CRT parameter set.
type RSAPrivateKey struct {
	N  *big.Int
	E  *big.Int
	D  *big.Int
	P  *big.Int
	Q  *big.Int
	DP *big.Int
	DQ *big.Int
	QI *big.Int
}

func (*RSAPublicKey) Algorithm() Algorithm  { return RSA }
func (*RSAPublicKey) Type() Type            { return Public }
func (*RSAPublicKey) material()             {}
func (*RSAPrivateKey) Algorithm() Algorithm { return RSA }
func (*RSAPrivateKey) Type() Type           { return Private }
func (*RSAPrivateKey) material()            {}

func (k *RSAPrivateKey) publicMaterial() Material {
	return k.Public()
}

// Public returns the public half of the key.
func (k *RSAPrivateKey) Public() *RSAPublicKey {
	return &RSAPublicKey{N: k.N, E: k.E}
}

// Equal reports whether both keys have the same parameters.
func (k *RSAPublicKey) Equal(o *RSAPublicKey) bool {
	return o != nil && eqInt(k.N, o.N) && eqInt(k.E, o.E)
}

// Equal reports whether both keys have the same parameters.
func (k *RSAPrivateKey) Equal(o *RSAPrivateKey) bool {
	return o != nil &&
		eqInt(k.N, o.N) && eqInt(k.E, o.E) && eqInt(k.D, o.D) &&
		eqInt(k.P, o.P) && eqInt(k.Q, o.Q) &&
		eqInt(k.DP, o.DP) && eqInt(k.DQ, o.DQ) && eqInt(k.QI, o.QI)
}

// BuildPublic validates n and e and returns a public key. Every absent
// field is reported.
func (p RSAParams) BuildPublic() (*RSAPublicKey, error) {
	var absent []string
	if p.Modulus == nil {
		absent = append(absent, "n")
	}
	if p.PublicExponent == nil {
		absent = append(absent, "e")
	}
	if err := missing("RSA", absent); err != nil {
		return nil, err
	}
	return &RSAPublicKey{N: p.Modulus, E: p.PublicExponent}, nil
}

// BuildPrivate returns a private key. The six private fields (d, p, q, dp,
// dq, qi) must all be present.
func (p RSAParams) BuildPrivate() (*RSAPrivateKey, error) {
	pub, err := p.BuildPublic()
	if err != nil {
		return nil, err
	}
	if absent := p.absentPrivate(); len(absent) > 0 {
		return nil, &MissingFieldError{Algorithm: "RSA", Fields: absent, Combination: true}
	}
	return &RSAPrivateKey{
		N:  pub.N,
		E:  pub.E,
		D:  p.PrivateExponent,
		P:  p.PrimeP,
		Q:  p.PrimeQ,
		DP: p.PrimeExponentP,
		DQ: p.PrimeExponentQ,
		QI: p.CRTCoefficient,
	}, nil
}

// Build returns a public key when none of the private fields are present,
// a private key when all of them are, and fails otherwise naming the
// absent subset.
func (p RSAParams) Build() (Material, error) {
	pub, err := p.BuildPublic()
	if err != nil {
		return nil, err
	}
	switch absent := p.absentPrivate(); len(absent) {
	case 0:
		return p.BuildPrivate()
	case 6:
		return pub, nil
	default:
		return nil, &MissingFieldError{Algorithm: "RSA", Fields: absent, Combination: true}
	}
}

func (p RSAParams) absentPrivate() []string {
	var absent []string
	fields := []struct {
		name  string
		value *big.Int
	}{
		{"d", p.PrivateExponent},
		{"p", p.PrimeP},
		{"q", p.PrimeQ},
		{"dp", p.PrimeExponentP},
		{"dq", p.PrimeExponentQ},
		{"qi", p.CRTCoefficient},
	}
	for _, f := range fields {
		if f.value == nil {
			absent = append(absent, f.name)
		}
	}
	return absent
}

// WithCRT fills in dp, dq and qi from d, p and q when those are present,
// for containers that do not carry the CRT exponents.
func (p RSAParams) WithCRT() RSAParams {
	d, pp, q := p.PrivateExponent, p.PrimeP, p.PrimeQ
	if d == nil || pp == nil || q == nil || pp.Sign() <= 0 || q.Sign() <= 0 {
		return p
	}
	one := big.NewInt(1)
	if p.PrimeExponentP == nil {
		p.PrimeExponentP = new(big.Int).Mod(d, new(big.Int).Sub(pp, one))
	}
	if p.PrimeExponentQ == nil {
		p.PrimeExponentQ = new(big.Int).Mod(d, new(big.Int).Sub(q, one))
	}
	if p.CRTCoefficient == nil {
		p.CRTCoefficient = new(big.Int).ModInverse(q, pp)
	}
	return p
}

// Params decomposes the key into its parameter bag.
func (k *RSAPrivateKey) Params() RSAParams {
	return RSAParams{
		Modulus:         k.N,
		PublicExponent:  k.E,
		PrivateExponent: k.D,
		PrimeP:          k.P,
		PrimeQ:          k.Q,
		PrimeExponentP:  k.DP,
		PrimeExponentQ:  k.DQ,
		CRTCoefficient:  k.QI,
	}
}

// Params decomposes the key into its parameter bag.
func (k *RSAPublicKey) Params() RSAParams {
	return RSAParams{Modulus: k.N, PublicExponent: k.E}
}

func eqInt(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
