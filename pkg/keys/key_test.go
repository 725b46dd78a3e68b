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
	"crypto/dsa" //nolint:staticcheck
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"math/big"
	"sync"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dsaOnce sync.Once
	dsaKey  *dsa.PrivateKey
)

func testDSAKey(t *testing.T) *dsa.PrivateKey {
	t.Helper()
	dsaOnce.Do(func() {
		k := new(dsa.PrivateKey)
		if err := dsa.GenerateParameters(&k.Parameters, rand.Reader, dsa.L1024N160); err != nil {
			t.Fatalf("Failed to generate DSA parameters: %v", err)
		}
		if err := dsa.GenerateKey(k, rand.Reader); err != nil {
			t.Fatalf("Failed to generate DSA key: %v", err)
		}
		dsaKey = k
	})
	return dsaKey
}

func TestKeyStringers(t *testing.T) {
	assert.Equal(t, "PUBLIC", Public.String())
	assert.Equal(t, "PRIVATE", Private.String())
	assert.Equal(t, "SECRET", Secret.String())
	assert.Equal(t, "OCT", OCT.String())
	assert.Equal(t, "OPENSSH", FormatOpenSSH.String())
	assert.Equal(t, "NONE", FormatNone.String())
}

func TestNewFiltersParameterAttributes(t *testing.T) {
	m := &RSAPublicKey{N: big.NewInt(3233), E: big.NewInt(17)}
	k := New(m, FormatJWK, map[string]string{
		"kty": "RSA",
		"n":   "xx",
		"e":   "AQAB",
		"kid": "abc",
		"use": "sig",
	})
	assert.Equal(t, map[string]string{"kid": "abc", "use": "sig"}, k.Attributes())
	assert.Equal(t, "abc", k.Attribute("kid"))
	assert.Empty(t, k.Attribute("n"))
}

func TestAttributesAreCopies(t *testing.T) {
	src := map[string]string{"kid": "1"}
	k := New(&RSAPublicKey{N: big.NewInt(3233), E: big.NewInt(17)}, FormatJWK, src)
	src["kid"] = "2"
	assert.Equal(t, "1", k.Attribute("kid"))

	attrs := k.Attributes()
	attrs["kid"] = "3"
	assert.Equal(t, "1", k.Attribute("kid"))
}

func TestPairedPublicKey(t *testing.T) {
	priv := &RSAPrivateKey{
		N: big.NewInt(3233), E: big.NewInt(17), D: big.NewInt(2753),
		P: big.NewInt(61), Q: big.NewInt(53),
		DP: big.NewInt(53), DQ: big.NewInt(49), QI: big.NewInt(38),
	}
	k := New(priv, FormatPEM, map[string]string{"kid": "a"})
	pub := k.PublicKey()
	require.NotNil(t, pub)
	assert.Equal(t, Public, pub.Type())
	assert.Equal(t, FormatPEM, pub.Format())
	assert.Equal(t, "a", pub.Attribute("kid"))
	assert.Same(t, pub, pub.PublicKey())

	secret, err := NewSecretKey([]byte("k"), "")
	require.NoError(t, err)
	assert.Nil(t, New(secret, FormatJWK, nil).PublicKey())
}

func TestWithFormatAndAttributesDoNotMutate(t *testing.T) {
	k := New(&RSAPublicKey{N: big.NewInt(3233), E: big.NewInt(17)}, FormatJWK, map[string]string{"kid": "a"})

	k2 := k.WithFormat(FormatSSH2)
	assert.Equal(t, FormatJWK, k.Format())
	assert.Equal(t, FormatSSH2, k2.Format())
	assert.True(t, k.Equal(k2), "format is provenance only")

	k3 := k.WithAttributes(map[string]string{"Comment": "c"})
	assert.Equal(t, "a", k.Attribute("kid"))
	assert.Equal(t, "c", k3.Attribute("Comment"))
	assert.False(t, k.Equal(k3))
}

func TestEqualAcrossVariants(t *testing.T) {
	rsaPub := New(&RSAPublicKey{N: big.NewInt(3233), E: big.NewInt(17)}, FormatNone, nil)
	dsaPub := New(&DSAPublicKey{DSADomain: DSADomain{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4)}, Y: big.NewInt(18)}, FormatNone, nil)
	assert.False(t, rsaPub.Equal(dsaPub))
	assert.False(t, rsaPub.Equal(nil))
	var nilKey *Key
	assert.True(t, nilKey.Equal(nil))
}

func TestFromCryptoRSA(t *testing.T) {
	native, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	k, err := FromCrypto(native)
	require.NoError(t, err)
	assert.Equal(t, Private, k.Type())
	assert.Equal(t, RSA, k.Algorithm())
	assert.Equal(t, FormatNone, k.Format())

	back, err := k.CryptoKey()
	require.NoError(t, err)
	assert.True(t, native.Equal(back))

	pub, err := k.PublicKey().CryptoKey()
	require.NoError(t, err)
	assert.True(t, native.PublicKey.Equal(pub))
}

func TestFromCryptoRSAUnsupportedVariants(t *testing.T) {
	native, err := rsa.GenerateMultiPrimeKey(rand.Reader, 3, 2048) //nolint:staticcheck
	require.NoError(t, err)
	_, err = FromCrypto(native)
	assert.ErrorIs(t, err, ErrUnsupportedKeyVariant)

	_, err = FromCrypto(&rsa.PrivateKey{PublicKey: rsa.PublicKey{N: big.NewInt(3233), E: 17}, D: big.NewInt(2753)})
	assert.ErrorIs(t, err, ErrUnsupportedKeyVariant)

	_, err = FromCrypto("not a key")
	assert.ErrorIs(t, err, ErrUnsupportedKeyVariant)
}

func TestFromCryptoDSA(t *testing.T) {
	native := testDSAKey(t)

	k, err := FromCrypto(native)
	require.NoError(t, err)
	require.NotNil(t, k.PublicKey())

	pub := k.PublicKey().Material().(*DSAPublicKey)
	assert.Equal(t, 0, pub.Y.Cmp(native.Y), "paired public key is g^x mod p")

	back, err := k.CryptoKey()
	require.NoError(t, err)
	priv := back.(*dsa.PrivateKey)
	assert.Equal(t, 0, priv.X.Cmp(native.X))
	assert.Equal(t, 0, priv.Y.Cmp(native.Y))
}

func TestFromCryptoECDSA(t *testing.T) {
	for _, ec := range []elliptic.Curve{elliptic.P224(), elliptic.P256(), elliptic.P384(), elliptic.P521(), secp256k1.S256()} {
		t.Run(ec.Params().Name, func(t *testing.T) {
			native, err := ecdsa.GenerateKey(ec, rand.Reader)
			require.NoError(t, err)

			k, err := FromCrypto(native)
			require.NoError(t, err)
			m := k.Material().(*ECPrivateKey)
			assert.Equal(t, ec.Params().BitSize, m.Curve.BitSize())

			back, err := k.CryptoKey()
			require.NoError(t, err)
			priv := back.(*ecdsa.PrivateKey)
			assert.Equal(t, 0, priv.D.Cmp(native.D))
			assert.Equal(t, 0, priv.X.Cmp(native.X))
			assert.Equal(t, 0, priv.Y.Cmp(native.Y))

			pk, err := FromCrypto(&native.PublicKey)
			require.NoError(t, err)
			assert.True(t, pk.Equal(k.PublicKey()))
		})
	}
}

func TestECCryptoKeyDerivesPoint(t *testing.T) {
	native, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	k, err := FromCrypto(&ecdsa.PrivateKey{PublicKey: ecdsa.PublicKey{Curve: elliptic.P256()}, D: native.D})
	require.NoError(t, err)
	assert.Nil(t, k.PublicKey())

	back, err := k.CryptoKey()
	require.NoError(t, err)
	priv := back.(*ecdsa.PrivateKey)
	assert.Equal(t, 0, priv.X.Cmp(native.X))
	assert.Equal(t, 0, priv.Y.Cmp(native.Y))
}

func TestFromCryptoSecret(t *testing.T) {
	k, err := FromCrypto([]byte("hmac key"))
	require.NoError(t, err)
	assert.Equal(t, Secret, k.Type())

	back, err := k.CryptoKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("hmac key"), back)
}

func TestRSAExponentOutOfRange(t *testing.T) {
	k := &RSAPublicKey{N: big.NewInt(3233), E: new(big.Int).Lsh(big.NewInt(1), 40)}
	_, err := k.CryptoKey()
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFromCryptoCopiesIntegers(t *testing.T) {
	rsaNative, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecNative, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rk, err := FromCrypto(rsaNative)
	require.NoError(t, err)
	ek, err := FromCrypto(ecNative)
	require.NoError(t, err)
	rsaBefore := rk.Material().(*RSAPrivateKey).Params()
	ecBefore := *ek.Material().(*ECPrivateKey)
	wantN := new(big.Int).Set(rsaNative.N)
	wantD := new(big.Int).Set(ecNative.D)

	rsaNative.N.SetInt64(1)
	rsaNative.D.SetInt64(1)
	rsaNative.Primes[0].SetInt64(1)
	ecNative.D.SetInt64(1)
	ecNative.X.SetInt64(1)

	assert.Equal(t, 0, rsaBefore.Modulus.Cmp(wantN))
	assert.Equal(t, 0, rk.PublicKey().Material().(*RSAPublicKey).N.Cmp(wantN))
	assert.NotEqual(t, int64(1), rsaBefore.PrivateExponent.Int64())
	assert.NotEqual(t, int64(1), rsaBefore.PrimeP.Int64())
	assert.Equal(t, 0, ecBefore.D.Cmp(wantD))
	assert.NotEqual(t, int64(1), ecBefore.X.Int64())
}
