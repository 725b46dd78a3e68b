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
	"crypto"
	"fmt"
	"strings"
)

// DefaultMAC is the MAC algorithm assumed for secret keys that do not
// declare one.
const DefaultMAC = "HS256"

// SecretKey is a symmetric key with its declared MAC algorithm.
type SecretKey struct {
	Secret []byte
	MAC    string
}

func (*SecretKey) Algorithm() Algorithm { return OCT }
func (*SecretKey) Type() Type           { return Secret }
func (*SecretKey) material()            {}

// NewSecretKey returns a secret key. An empty secret is accepted; a nil one
// is reported as a missing "k". An empty mac selects DefaultMAC.
func NewSecretKey(secret []byte, mac string) (*SecretKey, error) {
	if secret == nil {
		return nil, missing("OCT", []string{"k"})
	}
	if mac == "" {
		mac = DefaultMAC
	}
	return &SecretKey{
		Secret: bytes.Clone(secret),
		MAC:    strings.ToUpper(mac),
	}, nil
}

// Hash returns the digest behind an HMAC algorithm name (HS256, HS384,
// HS512).
func (k *SecretKey) Hash() (crypto.Hash, error) {
	switch k.MAC {
	case "HS256":
		return crypto.SHA256, nil
	case "HS384":
		return crypto.SHA384, nil
	case "HS512":
		return crypto.SHA512, nil
	default:
		return 0, fmt.Errorf("%w: MAC %q", ErrUnsupportedAlgorithm, k.MAC)
	}
}

// Equal reports whether both keys hold the same secret and MAC.
func (k *SecretKey) Equal(o *SecretKey) bool {
	return o != nil && k.MAC == o.MAC && bytes.Equal(k.Secret, o.Secret)
}
