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
	"bytes"
	"crypto/dsa" //nolint:staticcheck // DSA keys are converted, never used to sign
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"math"
	"math/big"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
)

// CryptoKey returns the native Go key for the key material:
// *rsa.PublicKey, *rsa.PrivateKey, *dsa.PublicKey, *dsa.PrivateKey,
// *ecdsa.PublicKey, *ecdsa.PrivateKey or []byte.
func (k *Key) CryptoKey() (any, error) {
	switch m := k.material.(type) {
	case *RSAPublicKey:
		return m.CryptoKey()
	case *RSAPrivateKey:
		return m.CryptoKey()
	case *DSAPublicKey:
		return m.CryptoKey(), nil
	case *DSAPrivateKey:
		return m.CryptoKey(), nil
	case *ECPublicKey:
		return m.CryptoKey()
	case *ECPrivateKey:
		return m.CryptoKey()
	case *SecretKey:
		return bytes.Clone(m.Secret), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyVariant, k.material)
}

func exponent(e *big.Int) (int, error) {
	if !e.IsInt64() || e.Int64() <= 1 || e.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("%w: RSA public exponent %s out of range", ErrInvalidKey, e)
	}
	return int(e.Int64()), nil
}

// CryptoKey returns the key as *rsa.PublicKey.
func (k *RSAPublicKey) CryptoKey() (*rsa.PublicKey, error) {
	e, err := exponent(k.E)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{N: new(big.Int).Set(k.N), E: e}, nil
}

// CryptoKey returns the key as *rsa.PrivateKey. The CRT values are
// recomputed by crypto/rsa.
func (k *RSAPrivateKey) CryptoKey() (*rsa.PrivateKey, error) {
	pub, err := k.Public().CryptoKey()
	if err != nil {
		return nil, err
	}
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).Set(k.D),
		Primes:    []*big.Int{new(big.Int).Set(k.P), new(big.Int).Set(k.Q)},
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	priv.Precompute()
	return priv, nil
}

// CryptoKey returns the key as *dsa.PublicKey.
func (k *DSAPublicKey) CryptoKey() *dsa.PublicKey {
	return &dsa.PublicKey{
		Parameters: k.DSADomain.native(),
		Y:          new(big.Int).Set(k.Y),
	}
}

// CryptoKey returns the key as *dsa.PrivateKey.
func (k *DSAPrivateKey) CryptoKey() *dsa.PrivateKey {
	return &dsa.PrivateKey{
		PublicKey: *k.Public().CryptoKey(),
		X:         new(big.Int).Set(k.X),
	}
}

func (d DSADomain) native() dsa.Parameters {
	return dsa.Parameters{
		P: new(big.Int).Set(d.P),
		Q: new(big.Int).Set(d.Q),
		G: new(big.Int).Set(d.G),
	}
}

// CryptoKey returns the key as *ecdsa.PublicKey. The curve must have a
// native implementation.
func (k *ECPublicKey) CryptoKey() (*ecdsa.PublicKey, error) {
	ec, err := k.Curve.Elliptic()
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{Curve: ec, X: new(big.Int).Set(k.X), Y: new(big.Int).Set(k.Y)}, nil
}

// CryptoKey returns the key as *ecdsa.PrivateKey, deriving the public point
// when the key material does not carry it.
func (k *ECPrivateKey) CryptoKey() (*ecdsa.PrivateKey, error) {
	ec, err := k.Curve.Elliptic()
	if err != nil {
		return nil, err
	}
	x, y, err := k.PublicPoint()
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: ec, X: new(big.Int).Set(x), Y: new(big.Int).Set(y)},
		D:         new(big.Int).Set(k.D),
	}, nil
}

// FromCrypto decomposes a native Go key into a Key with FormatNone and no
// attributes. Supported inputs are the RSA, DSA and ECDSA key types (by
// pointer) and []byte for secret keys.
func FromCrypto(native any) (*Key, error) {
	m, err := materialFromCrypto(native)
	if err != nil {
		return nil, err
	}
	return New(m, FormatNone, nil), nil
}

func materialFromCrypto(native any) (Material, error) {
	switch k := native.(type) {
	case *rsa.PublicKey:
		return RSAParams{
			Modulus:        cloneInt(k.N),
			PublicExponent: big.NewInt(int64(k.E)),
		}.BuildPublic()
	case *rsa.PrivateKey:
		if len(k.Primes) != 2 {
			return nil, fmt.Errorf("%w: RSA key with %d primes", ErrUnsupportedKeyVariant, len(k.Primes))
		}
		return RSAParams{
			Modulus:         cloneInt(k.N),
			PublicExponent:  big.NewInt(int64(k.E)),
			PrivateExponent: cloneInt(k.D),
			PrimeP:          cloneInt(k.Primes[0]),
			PrimeQ:          cloneInt(k.Primes[1]),
			PrimeExponentP:  cloneInt(k.Precomputed.Dp),
			PrimeExponentQ:  cloneInt(k.Precomputed.Dq),
			CRTCoefficient:  cloneInt(k.Precomputed.Qinv),
		}.WithCRT().BuildPrivate()
	case *dsa.PublicKey:
		return DSAParams{P: cloneInt(k.P), Q: cloneInt(k.Q), G: cloneInt(k.G), Y: cloneInt(k.Y)}.BuildPublic()
	case *dsa.PrivateKey:
		return DSAParams{P: cloneInt(k.P), Q: cloneInt(k.Q), G: cloneInt(k.G), X: cloneInt(k.X)}.BuildPrivate()
	case *ecdsa.PublicKey:
		c, err := curve.FromElliptic(k.Curve)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyVariant, err)
		}
		return ECParams{Curve: c, X: cloneInt(k.X), Y: cloneInt(k.Y)}.BuildPublic()
	case *ecdsa.PrivateKey:
		c, err := curve.FromElliptic(k.Curve)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyVariant, err)
		}
		return ECParams{Curve: c, D: cloneInt(k.D), X: cloneInt(k.X), Y: cloneInt(k.Y)}.BuildPrivate()
	case []byte:
		return NewSecretKey(k, DefaultMAC)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyVariant, native)
}

// cloneInt copies v so a Key never shares integers with the native key it
// was built from.
func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
