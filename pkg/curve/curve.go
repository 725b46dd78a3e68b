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

// Package curve provides the registry of named elliptic curves supported by
// go-keyformat.
//
// Curves are identified by their canonical JOSE name ("P-256", "secp256k1")
// and carry their full short Weierstrass domain parameters, so a curve can be
// resolved from a name, an ASN.1 OID, an SSH identifier, or from explicit
// parameters found in a DER structure that omits the name.
//
// The registry is built once on first use and is read-only afterwards; all
// lookups are safe for concurrent use.
package curve

import (
	"crypto/elliptic"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrUnsupportedCurve is returned when a name or parameter set matches no
// registered curve.
var ErrUnsupportedCurve = errors.New("unsupported curve")

// Canonical curve names.
const (
	P192      = "P-192"
	P224      = "P-224"
	P256      = "P-256"
	P384      = "P-384"
	P521      = "P-521"
	Secp256k1 = "secp256k1"
)

// Params are the domain parameters of a short Weierstrass curve
// y^2 = x^3 + ax + b over GF(p).
type Params struct {
	P        *big.Int // field prime
	A        *big.Int
	B        *big.Int
	Gx       *big.Int // generator
	Gy       *big.Int
	N        *big.Int // order of the generator
	Cofactor int
}

// Equal reports whether two parameter sets describe the same curve.
func (p Params) Equal(o Params) bool {
	return eq(p.P, o.P) &&
		eq(p.A, o.A) &&
		eq(p.B, o.B) &&
		eq(p.Gx, o.Gx) &&
		eq(p.Gy, o.Gy) &&
		eq(p.N, o.N) &&
		p.Cofactor == o.Cofactor
}

// String dumps the parameters in hex, one per line.
func (p Params) String() string {
	var sb strings.Builder
	line := func(name string, v *big.Int) {
		if v == nil {
			fmt.Fprintf(&sb, "  %-8s <nil>\n", name)
			return
		}
		fmt.Fprintf(&sb, "  %-8s %x\n", name, v)
	}
	line("p", p.P)
	line("a", p.A)
	line("b", p.B)
	line("x", p.Gx)
	line("y", p.Gy)
	line("n", p.N)
	fmt.Fprintf(&sb, "  %-8s %d\n", "h", p.Cofactor)
	return sb.String()
}

func eq(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

// Curve is a registered named curve.
type Curve struct {
	// Name is the canonical name used by JWK "crv".
	Name string

	// Aliases are alternative names accepted by Resolve (SEC and ANSI names).
	Aliases []string

	// OID is the namedCurve object identifier used in DER structures.
	OID asn1.ObjectIdentifier

	// SSHName is the identifier used in "ecdsa-sha2-<name>" SSH keys. Empty
	// when the curve has no SSH binding.
	SSHName string

	Params Params

	native func() elliptic.Curve
}

// String returns the canonical name.
func (c *Curve) String() string {
	return c.Name
}

// BitSize returns the bit length of the field prime.
func (c *Curve) BitSize() int {
	return c.Params.P.BitLen()
}

// ByteSize returns the length in bytes of a field element, which is the
// fixed width of coordinates and private scalars on this curve.
func (c *Curve) ByteSize() int {
	return (c.BitSize() + 7) / 8
}

// IsOnCurve reports whether (x, y) satisfies the curve equation. It works
// for every registered curve, with or without a native implementation.
func (c *Curve) IsOnCurve(x, y *big.Int) bool {
	p := c.Params.P
	if x == nil || y == nil || x.Sign() < 0 || y.Sign() < 0 || x.Cmp(p) >= 0 || y.Cmp(p) >= 0 {
		return false
	}

	// y^2
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, p)

	// x^3 + ax + b
	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	ax := new(big.Int).Mul(c.Params.A, x)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.Params.B)
	rhs.Mod(rhs, p)

	return lhs.Cmp(rhs) == 0
}

// HasNative reports whether point arithmetic is available for this curve.
func (c *Curve) HasNative() bool {
	return c.native != nil
}

// Elliptic returns the crypto/elliptic implementation of the curve.
func (c *Curve) Elliptic() (elliptic.Curve, error) {
	if c.native == nil {
		return nil, fmt.Errorf("%w: %s has no native implementation", ErrUnsupportedCurve, c.Name)
	}
	return c.native(), nil
}

// PublicPoint computes d·G.
func (c *Curve) PublicPoint(d *big.Int) (x, y *big.Int, err error) {
	ec, err := c.Elliptic()
	if err != nil {
		return nil, nil, err
	}
	if d.Sign() <= 0 || d.Cmp(c.Params.N) >= 0 {
		return nil, nil, fmt.Errorf("private scalar out of range for %s", c.Name)
	}
	x, y = ec.ScalarBaseMult(d.FillBytes(make([]byte, c.ByteSize())))
	return x, y, nil
}

// UnsupportedCurveError describes a curve that could not be identified.
type UnsupportedCurveError struct {
	// Name is the requested name, empty for parameter lookups.
	Name string

	// Params is a dump of the unmatched parameters, empty for name lookups.
	Params string
}

func (e *UnsupportedCurveError) Error() string {
	if e.Params != "" {
		return fmt.Sprintf("unsupported curve: the specified parameters have no known name. Params:\n%s", e.Params)
	}
	return fmt.Sprintf("unsupported curve: %q", e.Name)
}

// Is lets errors.Is match ErrUnsupportedCurve.
func (e *UnsupportedCurveError) Is(target error) bool {
	return target == ErrUnsupportedCurve
}
