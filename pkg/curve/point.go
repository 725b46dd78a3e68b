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

package curve

import (
	"errors"
	"math/big"
)

// ErrInvalidPoint is returned for point encodings that are malformed or do
// not lie on the curve.
var ErrInvalidPoint = errors.New("curve: invalid point encoding")

// MarshalPoint encodes (x, y) in SEC 1 uncompressed form: 0x04 || X || Y
// with fixed-width coordinates.
func (c *Curve) MarshalPoint(x, y *big.Int) []byte {
	size := c.ByteSize()
	out := make([]byte, 1+2*size)
	out[0] = 4
	x.FillBytes(out[1 : 1+size])
	y.FillBytes(out[1+size:])
	return out
}

// UnmarshalPoint decodes a SEC 1 uncompressed or compressed point and
// checks that it lies on the curve.
func (c *Curve) UnmarshalPoint(data []byte) (x, y *big.Int, err error) {
	return c.Params.UnmarshalPoint(data)
}

// UnmarshalPoint decodes a SEC 1 point against these domain parameters.
// It works without a curve name, for explicit parameter encodings.
func (p Params) UnmarshalPoint(data []byte) (x, y *big.Int, err error) {
	if p.P == nil {
		return nil, nil, ErrInvalidPoint
	}
	size := (p.P.BitLen() + 7) / 8
	switch {
	case len(data) == 1+2*size && data[0] == 4:
		x = new(big.Int).SetBytes(data[1 : 1+size])
		y = new(big.Int).SetBytes(data[1+size:])
	case len(data) == 1+size && (data[0] == 2 || data[0] == 3):
		x = new(big.Int).SetBytes(data[1:])
		if y = p.solveY(x, data[0] == 3); y == nil {
			return nil, nil, ErrInvalidPoint
		}
	default:
		return nil, nil, ErrInvalidPoint
	}
	if !p.isOnCurve(x, y) {
		return nil, nil, ErrInvalidPoint
	}
	return x, y, nil
}

// solveY returns the root of y^2 = x^3 + ax + b with the requested parity,
// or nil when x is not the abscissa of a point.
func (p Params) solveY(x *big.Int, odd bool) *big.Int {
	if x.Cmp(p.P) >= 0 {
		return nil
	}
	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	rhs.Add(rhs, new(big.Int).Mul(p.A, x))
	rhs.Add(rhs, p.B)
	rhs.Mod(rhs, p.P)
	y := new(big.Int).ModSqrt(rhs, p.P)
	if y == nil {
		return nil
	}
	if (y.Bit(0) == 1) != odd {
		y.Sub(p.P, y)
	}
	return y
}

func (p Params) isOnCurve(x, y *big.Int) bool {
	return (&Curve{Params: p}).IsOnCurve(x, y)
}
