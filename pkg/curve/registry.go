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
	"crypto/elliptic"
	"encoding/asn1"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

type registry struct {
	curves []*Curve
	byName map[string]*Curve
	bySSH  map[string]*Curve
}

// curves is populated on first use and never modified afterwards.
var curves = sync.OnceValue(func() *registry {
	r := &registry{
		byName: make(map[string]*Curve),
		bySSH:  make(map[string]*Curve),
	}

	// Order matters: NameFor tries the first three before the rest.
	r.add(nist(P256, elliptic.P256, "nistp256", asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}, "secp256r1", "prime256v1"))
	r.add(nist(P384, elliptic.P384, "nistp384", asn1.ObjectIdentifier{1, 3, 132, 0, 34}, "secp384r1"))
	r.add(nist(P521, elliptic.P521, "nistp521", asn1.ObjectIdentifier{1, 3, 132, 0, 35}, "secp521r1"))
	r.add(nist(P224, elliptic.P224, "", asn1.ObjectIdentifier{1, 3, 132, 0, 33}, "secp224r1"))
	r.add(p192())
	r.add(k256())

	return r
})

func (r *registry) add(c *Curve) {
	r.curves = append(r.curves, c)
	r.byName[c.Name] = c
	for _, alias := range c.Aliases {
		r.byName[alias] = c
	}
	if c.SSHName != "" {
		r.bySSH[c.SSHName] = c
	}
}

func nist(name string, fn func() elliptic.Curve, sshName string, oid asn1.ObjectIdentifier, aliases ...string) *Curve {
	std := fn().Params()
	return &Curve{
		Name:    name,
		Aliases: aliases,
		OID:     oid,
		SSHName: sshName,
		Params: Params{
			P:        std.P,
			A:        new(big.Int).Sub(std.P, big.NewInt(3)),
			B:        std.B,
			Gx:       std.Gx,
			Gy:       std.Gy,
			N:        std.N,
			Cofactor: 1,
		},
		native: fn,
	}
}

// p192 has no crypto/elliptic constructor; a = -3 so the generic
// CurveParams arithmetic applies.
func p192() *Curve {
	params := Params{
		P:        hex("fffffffffffffffffffffffffffffffeffffffffffffffff"),
		A:        hex("fffffffffffffffffffffffffffffffefffffffffffffffc"),
		B:        hex("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1"),
		Gx:       hex("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012"),
		Gy:       hex("07192b95ffc8da78631011ed6b24cdd573f977a11e794811"),
		N:        hex("ffffffffffffffffffffffff99def836146bc9b1b4d22831"),
		Cofactor: 1,
	}
	generic := &elliptic.CurveParams{
		P:       params.P,
		N:       params.N,
		B:       params.B,
		Gx:      params.Gx,
		Gy:      params.Gy,
		BitSize: 192,
		Name:    P192,
	}
	return &Curve{
		Name:    P192,
		Aliases: []string{"secp192r1", "prime192v1"},
		OID:     asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 1},
		Params:  params,
		native:  func() elliptic.Curve { return generic },
	}
}

func k256() *Curve {
	std := secp256k1.S256().Params()
	return &Curve{
		Name:    Secp256k1,
		Aliases: []string{"P-256K"},
		OID:     asn1.ObjectIdentifier{1, 3, 132, 0, 10},
		Params: Params{
			P:        std.P,
			A:        new(big.Int),
			B:        std.B,
			Gx:       std.Gx,
			Gy:       std.Gy,
			N:        std.N,
			Cofactor: 1,
		},
		native: func() elliptic.Curve { return secp256k1.S256() },
	}
}

func hex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curve: bad constant " + s)
	}
	return v
}

// Resolve returns the curve registered under name. Matching is exact and
// case-sensitive against canonical names and aliases.
func Resolve(name string) (*Curve, error) {
	if c, ok := curves().byName[name]; ok {
		return c, nil
	}
	return nil, &UnsupportedCurveError{Name: name}
}

// BySSHName returns the curve for an SSH curve identifier such as "nistp256".
func BySSHName(name string) (*Curve, error) {
	if c, ok := curves().bySSH[name]; ok {
		return c, nil
	}
	return nil, &UnsupportedCurveError{Name: name}
}

// ByOID returns the curve registered under a namedCurve OID.
func ByOID(oid asn1.ObjectIdentifier) (*Curve, error) {
	for _, c := range curves().curves {
		if c.OID.Equal(oid) {
			return c, nil
		}
	}
	return nil, &UnsupportedCurveError{Name: oid.String()}
}

// Lookup returns the registered curve whose domain parameters equal params.
// Curves are tried in registry order, most common first.
func Lookup(params Params) (*Curve, error) {
	for _, c := range curves().curves {
		if c.Params.Equal(params) {
			return c, nil
		}
	}
	return nil, &UnsupportedCurveError{Params: params.String()}
}

// NameFor returns the canonical name of the curve described by params.
func NameFor(params Params) (string, error) {
	c, err := Lookup(params)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// All returns every registered curve in registry order.
func All() []*Curve {
	all := curves().curves
	out := make([]*Curve, len(all))
	copy(out, all)
	return out
}

// FromElliptic returns the registered curve implemented by ec.
func FromElliptic(ec elliptic.Curve) (*Curve, error) {
	if ec == nil {
		return nil, &UnsupportedCurveError{}
	}
	p := ec.Params()
	if c, ok := curves().byName[p.Name]; ok && eq(c.Params.P, p.P) && eq(c.Params.N, p.N) && eq(c.Params.Gx, p.Gx) {
		return c, nil
	}
	for _, c := range curves().curves {
		if eq(c.Params.P, p.P) && eq(c.Params.B, p.B) && eq(c.Params.N, p.N) && eq(c.Params.Gx, p.Gx) && eq(c.Params.Gy, p.Gy) {
			return c, nil
		}
	}
	return nil, &UnsupportedCurveError{Name: p.Name}
}
