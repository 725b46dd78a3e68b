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

// Package testutil generates native test keys. Keys are generated once per
// test binary and shared, since RSA and DSA generation is slow.
package testutil

import (
	"crypto/dsa" //nolint:staticcheck
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

var (
	rsaKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
		return rsa.GenerateKey(rand.Reader, 2048)
	})

	dsaKey = sync.OnceValues(func() (*dsa.PrivateKey, error) {
		k := new(dsa.PrivateKey)
		if err := dsa.GenerateParameters(&k.Parameters, rand.Reader, dsa.L1024N160); err != nil {
			return nil, err
		}
		if err := dsa.GenerateKey(k, rand.Reader); err != nil {
			return nil, err
		}
		return k, nil
	})

	ecMu   sync.Mutex
	ecKeys = make(map[string]*ecdsa.PrivateKey)
)

// RSAKey returns a shared 2048-bit RSA key.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	k, err := rsaKey()
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return k
}

// DSAKey returns a shared L1024N160 DSA key.
func DSAKey(t testing.TB) *dsa.PrivateKey {
	t.Helper()
	k, err := dsaKey()
	if err != nil {
		t.Fatalf("Failed to generate DSA key: %v", err)
	}
	return k
}

// ECKey returns a shared ECDSA key on the named curve: P-224, P-256,
// P-384, P-521 or secp256k1.
func ECKey(t testing.TB, name string) *ecdsa.PrivateKey {
	t.Helper()
	ecMu.Lock()
	defer ecMu.Unlock()
	if k, ok := ecKeys[name]; ok {
		return k
	}
	var c elliptic.Curve
	switch name {
	case "P-224":
		c = elliptic.P224()
	case "P-256":
		c = elliptic.P256()
	case "P-384":
		c = elliptic.P384()
	case "P-521":
		c = elliptic.P521()
	case "secp256k1":
		c = secp256k1.S256()
	default:
		t.Fatalf("no test key for curve %q", name)
	}
	k, err := ecdsa.GenerateKey(c, rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate %s key: %v", name, err)
	}
	ecKeys[name] = k
	return k
}

// ECCurves lists the curves ECKey supports.
var ECCurves = []string{"P-224", "P-256", "P-384", "P-521", "secp256k1"}

// Key converts a native key with keys.FromCrypto.
func Key(t testing.TB, native any) *keys.Key {
	t.Helper()
	k, err := keys.FromCrypto(native)
	if err != nil {
		t.Fatalf("FromCrypto(%T): %v", native, err)
	}
	return k
}

// AllKeys returns one private key per supported algorithm and curve,
// keyed by a descriptive name.
func AllKeys(t testing.TB) map[string]*keys.Key {
	t.Helper()
	out := map[string]*keys.Key{
		"RSA": Key(t, RSAKey(t)),
		"DSA": Key(t, DSAKey(t)),
	}
	for _, name := range ECCurves {
		out["EC "+name] = Key(t, ECKey(t, name))
	}
	return out
}
