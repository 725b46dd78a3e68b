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

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
)

// ECParams is the parameter bag accepted by the EC builder. Curve
// resolution happens upstream; a nil Curve is reported as a missing "crv".
type ECParams struct {
	Curve *curve.Curve
	D     *big.Int
	X     *big.Int
	Y     *big.Int
}

// ECPublicKey is an elliptic curve public key.
type ECPublicKey struct {
	Curve *curve.Curve
	X     *big.Int
	Y     *big.Int
}

// ECPrivateKey is an elliptic curve private key. X and Y are set only when
// the source carried the public point.
type ECPrivateKey struct {
	Curve *curve.Curve
	D     *big.Int
	X     *big.Int
	Y     *big.Int
}

func (*ECPublicKey) Algorithm() Algorithm  { return EC }
func (*ECPublicKey) Type() Type            { return Public }
func (*ECPublicKey) material()             {}
func (*ECPrivateKey) Algorithm() Algorithm { return EC }
func (*ECPrivateKey) Type() Type           { return Private }
func (*ECPrivateKey) material()            {}

func (k *ECPrivateKey) publicMaterial() Material {
	if pub := k.Public(); pub != nil {
		return pub
	}
	return nil
}

// Public returns the public key when the point is known, or nil.
func (k *ECPrivateKey) Public() *ECPublicKey {
	if k.X == nil || k.Y == nil {
		return nil
	}
	return &ECPublicKey{Curve: k.Curve, X: k.X, Y: k.Y}
}

// PublicPoint returns the public point, computing d·G when the source did
// not carry it.
func (k *ECPrivateKey) PublicPoint() (x, y *big.Int, err error) {
	if k.X != nil && k.Y != nil {
		return k.X, k.Y, nil
	}
	x, y, err = k.Curve.PublicPoint(k.D)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot derive public point: %w", ErrMissingField, err)
	}
	return x, y, nil
}

// Equal reports whether both keys have the same parameters.
func (k *ECPublicKey) Equal(o *ECPublicKey) bool {
	return o != nil && k.Curve == o.Curve && eqInt(k.X, o.X) && eqInt(k.Y, o.Y)
}

// Equal reports whether both keys have the same parameters.
func (k *ECPrivateKey) Equal(o *ECPrivateKey) bool {
	return o != nil && k.Curve == o.Curve && eqInt(k.D, o.D) && eqInt(k.X, o.X) && eqInt(k.Y, o.Y)
}

// BuildPrivate returns a private key. The public point is retained only
// when both coordinates are present.
func (p ECParams) BuildPrivate() (*ECPrivateKey, error) {
	var absent []string
	if p.Curve == nil {
		absent = append(absent, "crv")
	}
	if p.D == nil {
		absent = append(absent, "d")
	}
	if err := missing("EC", absent); err != nil {
		return nil, err
	}
	k := &ECPrivateKey{Curve: p.Curve, D: p.D}
	if p.X != nil && p.Y != nil {
		if !p.Curve.IsOnCurve(p.X, p.Y) {
			return nil, fmt.Errorf("%w: point is not on curve %s", ErrInvalidKey, p.Curve.Name)
		}
		k.X, k.Y = p.X, p.Y
	}
	return k, nil
}

// BuildPublic returns a public key, naming whichever of x and y is absent.
func (p ECParams) BuildPublic() (*ECPublicKey, error) {
	var absent []string
	if p.Curve == nil {
		absent = append(absent, "crv")
	}
	if p.X == nil {
		absent = append(absent, "x")
	}
	if p.Y == nil {
		absent = append(absent, "y")
	}
	if err := missing("EC", absent); err != nil {
		return nil, err
	}
	if !p.Curve.IsOnCurve(p.X, p.Y) {
		return nil, fmt.Errorf("%w: point is not on curve %s", ErrInvalidKey, p.Curve.Name)
	}
	return &ECPublicKey{Curve: p.Curve, X: p.X, Y: p.Y}, nil
}

// Build returns a private key when d is present and a public key otherwise.
func (p ECParams) Build() (Material, error) {
	if p.D != nil {
		return p.BuildPrivate()
	}
	return p.BuildPublic()
}
