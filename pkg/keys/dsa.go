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
	"fmt"
	"math/big"
)

// MaxDSAModulusBits bounds the size of p accepted by the DSA builder.
// Deriving y from x costs a modular exponentiation in p.
const MaxDSAModulusBits = 4096

// DSAParams is the parameter bag accepted by the DSA builder.
type DSAParams struct {
	P *big.Int
	Q *big.Int
	G *big.Int
	X *big.Int // private
	Y *big.Int // public
}

// DSADomain holds the shared group parameters.
type DSADomain struct {
	P *big.Int
	Q *big.Int
	G *big.Int
}

// DSAPublicKey is a DSA public key.
type DSAPublicKey struct {
	DSADomain
	Y *big.Int
}

// DSAPrivateKey is a DSA private key.
type DSAPrivateKey struct {
	DSADomain
	X *big.Int
}

func (*DSAPublicKey) Algorithm() Algorithm  { return DSA }
func (*DSAPublicKey) Type() Type            { return Public }
func (*DSAPublicKey) material()             {}
func (*DSAPrivateKey) Algorithm() Algorithm { return DSA }
func (*DSAPrivateKey) Type() Type           { return Private }
func (*DSAPrivateKey) material()            {}

func (k *DSAPrivateKey) publicMaterial() Material {
	return k.Public()
}

// Public derives the public key y = g^x mod p.
func (k *DSAPrivateKey) Public() *DSAPublicKey {
	return &DSAPublicKey{
		DSADomain: k.DSADomain,
		Y:         new(big.Int).Exp(k.G, k.X, k.P),
	}
}

func (d DSADomain) equal(o DSADomain) bool {
	return eqInt(d.P, o.P) && eqInt(d.Q, o.Q) && eqInt(d.G, o.G)
}

// Equal reports whether both keys have the same parameters.
func (k *DSAPublicKey) Equal(o *DSAPublicKey) bool {
	return o != nil && k.DSADomain.equal(o.DSADomain) && eqInt(k.Y, o.Y)
}

// Equal reports whether both keys have the same parameters.
func (k *DSAPrivateKey) Equal(o *DSAPrivateKey) bool {
	return o != nil && k.DSADomain.equal(o.DSADomain) && eqInt(k.X, o.X)
}

func (p DSAParams) domain() (DSADomain, error) {
	var absent []string
	if p.P == nil {
		absent = append(absent, "p")
	}
	if p.Q == nil {
		absent = append(absent, "q")
	}
	if p.G == nil {
		absent = append(absent, "g")
	}
	if err := missing("DSA", absent); err != nil {
		return DSADomain{}, err
	}
	if p.P.Sign() <= 0 {
		return DSADomain{}, fmt.Errorf("%w: DSA p must be positive", ErrInvalidKey)
	}
	if p.P.BitLen() > MaxDSAModulusBits {
		return DSADomain{}, fmt.Errorf("%w: DSA p is %d bits, limit is %d", ErrInvalidKey, p.P.BitLen(), MaxDSAModulusBits)
	}
	if p.Q.Sign() <= 0 || p.Q.Cmp(p.P) >= 0 {
		return DSADomain{}, fmt.Errorf("%w: DSA q must be in (0, p)", ErrInvalidKey)
	}
	return DSADomain{P: p.P, Q: p.Q, G: p.G}, nil
}

// BuildPrivate returns a private key from p, q, g and x.
func (p DSAParams) BuildPrivate() (*DSAPrivateKey, error) {
	domain, err := p.domain()
	if err != nil {
		return nil, err
	}
	if p.X == nil {
		return nil, missing("DSA", []string{"x"})
	}
	if p.X.Sign() <= 0 || p.X.Cmp(domain.Q) >= 0 {
		return nil, fmt.Errorf("%w: DSA x must be in (0, q)", ErrInvalidKey)
	}
	return &DSAPrivateKey{DSADomain: domain, X: p.X}, nil
}

// BuildPublic returns a public key from p, q, g and y.
func (p DSAParams) BuildPublic() (*DSAPublicKey, error) {
	domain, err := p.domain()
	if err != nil {
		return nil, err
	}
	if p.Y == nil {
		return nil, missing("DSA", []string{"y"})
	}
	return &DSAPublicKey{DSADomain: domain, Y: p.Y}, nil
}

// Build returns a private key when x is present, otherwise a public key
// when y is present, and fails naming both when neither is.
func (p DSAParams) Build() (Material, error) {
	if _, err := p.domain(); err != nil {
		return nil, err
	}
	switch {
	case p.X != nil:
		return p.BuildPrivate()
	case p.Y != nil:
		return p.BuildPublic()
	default:
		return nil, &MissingFieldError{Algorithm: "DSA", Fields: []string{"x", "y"}, Combination: true}
	}
}
