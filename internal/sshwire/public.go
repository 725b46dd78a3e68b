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

package sshwire

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// Key type identifiers.
const (
	KeyRSA         = "ssh-rsa"
	KeyDSA         = "ssh-dss"
	KeyECDSAPrefix = "ecdsa-sha2-"
)

// Identifier returns the SSH key type identifier for m.
func Identifier(m keys.Material) (string, error) {
	switch k := m.(type) {
	case *keys.RSAPublicKey, *keys.RSAPrivateKey:
		return KeyRSA, nil
	case *keys.DSAPublicKey, *keys.DSAPrivateKey:
		return KeyDSA, nil
	case *keys.ECPublicKey:
		return ecIdentifier(k.Curve)
	case *keys.ECPrivateKey:
		return ecIdentifier(k.Curve)
	case *keys.SecretKey:
		return "", fmt.Errorf("%w: secret keys have no SSH form", keys.ErrUnsupportedAlgorithm)
	}
	return "", fmt.Errorf("%w: %T", keys.ErrUnsupportedKeyVariant, m)
}

func ecIdentifier(c *curve.Curve) (string, error) {
	if c.SSHName == "" {
		return "", fmt.Errorf("%w: curve %s has no SSH identifier", keys.ErrUnsupportedCurve, c.Name)
	}
	return KeyECDSAPrefix + c.SSHName, nil
}

// curveFor resolves the curve named by an ecdsa-sha2-* identifier.
func curveFor(name string) (*curve.Curve, error) {
	c, err := curve.BySSHName(strings.TrimPrefix(name, KeyECDSAPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", keys.ErrUnsupportedKeyFormat, name, err)
	}
	return c, nil
}

// ParsePublicKey decodes a complete public key blob.
func ParsePublicKey(blob []byte) (keys.Material, error) {
	r := NewReader(blob)
	m, err := ReadPublicKey(r)
	if err != nil {
		return nil, err
	}
	if !r.Empty() {
		return nil, fmt.Errorf("%w: trailing data after public key", keys.ErrMalformedInput)
	}
	return m, nil
}

// ReadPublicKey reads a key type identifier followed by its public fields.
func ReadPublicKey(r *Reader) (keys.Material, error) {
	name, err := r.Name()
	if err != nil {
		return nil, err
	}
	return ReadPublicFields(name, r)
}

// ReadPublicFields reads the public fields of the named key type:
//
//	ssh-rsa            e, n
//	ssh-dss            p, q, g, y
//	ecdsa-sha2-<curve> curve, Q
func ReadPublicFields(name string, r *Reader) (keys.Material, error) {
	switch {
	case name == KeyRSA:
		e, err := r.MPInt()
		if err != nil {
			return nil, err
		}
		n, err := r.MPInt()
		if err != nil {
			return nil, err
		}
		return keys.RSAParams{Modulus: n, PublicExponent: e}.BuildPublic()

	case name == KeyDSA:
		p, err := readDSAPublic(r)
		if err != nil {
			return nil, err
		}
		return p.BuildPublic()

	case strings.HasPrefix(name, KeyECDSAPrefix):
		p, err := readECPublic(name, r)
		if err != nil {
			return nil, err
		}
		return p.BuildPublic()
	}
	return nil, fmt.Errorf("%w: SSH key type %q", keys.ErrUnsupportedKeyFormat, name)
}

func readDSAPublic(r *Reader) (keys.DSAParams, error) {
	var p keys.DSAParams
	var err error
	if p.P, err = r.MPInt(); err != nil {
		return p, err
	}
	if p.Q, err = r.MPInt(); err != nil {
		return p, err
	}
	if p.G, err = r.MPInt(); err != nil {
		return p, err
	}
	p.Y, err = r.MPInt()
	return p, err
}

// readECPublic reads the curve identifier and point of an ecdsa-sha2-*
// key and checks the identifier against the key type.
func readECPublic(name string, r *Reader) (keys.ECParams, error) {
	c, err := curveFor(name)
	if err != nil {
		return keys.ECParams{}, err
	}
	id, err := r.Name()
	if err != nil {
		return keys.ECParams{}, err
	}
	if id != c.SSHName {
		return keys.ECParams{}, fmt.Errorf("%w: curve %q does not match key type %q", keys.ErrInvalidKey, id, name)
	}
	point, err := r.String()
	if err != nil {
		return keys.ECParams{}, err
	}
	x, y, err := c.UnmarshalPoint(point)
	if err != nil {
		return keys.ECParams{}, fmt.Errorf("%w: %w", keys.ErrInvalidKey, err)
	}
	return keys.ECParams{Curve: c, X: x, Y: y}, nil
}

// ReadPrivateFields reads the fields that follow the identifier in an
// OpenSSH private key section:
//
//	ssh-rsa            n, e, d, iqmp, p, q
//	ssh-dss            p, q, g, y, x
//	ecdsa-sha2-<curve> curve, Q, d
func ReadPrivateFields(name string, r *Reader) (keys.Material, error) {
	switch {
	case name == KeyRSA:
		var p keys.RSAParams
		for _, f := range []**big.Int{
			&p.Modulus,
			&p.PublicExponent,
			&p.PrivateExponent,
			&p.CRTCoefficient,
			&p.PrimeP,
			&p.PrimeQ,
		} {
			v, err := r.MPInt()
			if err != nil {
				return nil, err
			}
			*f = v
		}
		return p.WithCRT().BuildPrivate()

	case name == KeyDSA:
		p, err := readDSAPublic(r)
		if err != nil {
			return nil, err
		}
		if p.X, err = r.MPInt(); err != nil {
			return nil, err
		}
		priv, err := p.BuildPrivate()
		if err != nil {
			return nil, err
		}
		if priv.Public().Y.Cmp(p.Y) != 0 {
			return nil, fmt.Errorf("%w: DSA public value does not match private value", keys.ErrInvalidKey)
		}
		return priv, nil

	case strings.HasPrefix(name, KeyECDSAPrefix):
		p, err := readECPublic(name, r)
		if err != nil {
			return nil, err
		}
		if p.D, err = r.MPInt(); err != nil {
			return nil, err
		}
		return p.BuildPrivate()
	}
	return nil, fmt.Errorf("%w: SSH key type %q", keys.ErrUnsupportedKeyFormat, name)
}

// PublicOf returns the public counterpart of m, deriving the EC point when
// the private key does not carry it. Public material is returned as is.
func PublicOf(m keys.Material) (keys.Material, error) {
	switch k := m.(type) {
	case *keys.RSAPrivateKey:
		return k.Public(), nil
	case *keys.DSAPrivateKey:
		return k.Public(), nil
	case *keys.ECPrivateKey:
		x, y, err := k.PublicPoint()
		if err != nil {
			return nil, err
		}
		return &keys.ECPublicKey{Curve: k.Curve, X: x, Y: y}, nil
	case *keys.SecretKey:
		return nil, fmt.Errorf("%w: secret keys have no SSH form", keys.ErrUnsupportedAlgorithm)
	}
	return m, nil
}

// MarshalPublicKey encodes the public key blob of m. Private material is
// reduced to its public counterpart.
func MarshalPublicKey(m keys.Material) ([]byte, error) {
	pub, err := PublicOf(m)
	if err != nil {
		return nil, err
	}
	name, err := Identifier(pub)
	if err != nil {
		return nil, err
	}
	w := NewWriter().Name(name)
	switch k := pub.(type) {
	case *keys.RSAPublicKey:
		w.MPInt(k.E).MPInt(k.N)
	case *keys.DSAPublicKey:
		w.MPInt(k.P).MPInt(k.Q).MPInt(k.G).MPInt(k.Y)
	case *keys.ECPublicKey:
		w.Name(k.Curve.SSHName).String(k.Curve.MarshalPoint(k.X, k.Y))
	}
	return w.Bytes(), nil
}

// WritePrivateFields appends the identifier and private fields of m, in
// the order ReadPrivateFields expects.
func WritePrivateFields(w *Writer, m keys.Material) error {
	name, err := Identifier(m)
	if err != nil {
		return err
	}
	switch k := m.(type) {
	case *keys.RSAPrivateKey:
		w.Name(name).MPInt(k.N).MPInt(k.E).MPInt(k.D).MPInt(k.QI).MPInt(k.P).MPInt(k.Q)
	case *keys.DSAPrivateKey:
		w.Name(name).MPInt(k.P).MPInt(k.Q).MPInt(k.G).MPInt(k.Public().Y).MPInt(k.X)
	case *keys.ECPrivateKey:
		x, y, err := k.PublicPoint()
		if err != nil {
			return err
		}
		w.Name(name).Name(k.Curve.SSHName).String(k.Curve.MarshalPoint(x, y)).MPInt(k.D)
	default:
		return fmt.Errorf("%w: %s key is not private", keys.ErrUnsupportedKeyVariant, m.Algorithm())
	}
	return nil
}
