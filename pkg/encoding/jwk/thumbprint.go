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

package jwk

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"slices"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// ThumbprintSHA256 computes the SHA-256 JWK thumbprint as defined in RFC 7638.
// This is the most commonly used thumbprint hash function.
//
// The thumbprint is computed from the required members of a JWK representing
// the key, in lexicographic order, with no whitespace or line breaks.
//
// For RSA keys: {"e":"...","kty":"RSA","n":"..."}
// For EC keys: {"crv":"...","kty":"EC","x":"...","y":"..."}
// For oct keys: {"k":"...","kty":"oct"}
func ThumbprintSHA256(key *keys.Key) (string, error) {
	return Thumbprint(key, crypto.SHA256)
}

// Thumbprint computes a JWK thumbprint using the specified hash function.
// Private keys are thumbprinted through their public members. DSA has no
// registered member set and is rejected.
//
// The thumbprint is computed according to RFC 7638:
// 1. Construct a JSON object containing only the required members for the key type
// 2. Serialize with lexicographically sorted keys and no whitespace
// 3. Hash the UTF-8 representation
// 4. Base64url encode the hash
func Thumbprint(key *keys.Key, hashFunc crypto.Hash) (string, error) {
	required, err := requiredMembers(key)
	if err != nil {
		return "", err
	}

	var h hash.Hash
	switch hashFunc {
	case crypto.SHA1:
		h = sha1.New()
	case crypto.SHA256:
		h = sha256.New()
	case crypto.SHA384:
		h = sha512.New384()
	case crypto.SHA512:
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported hash function: %v", hashFunc)
	}

	h.Write(required.marshal())
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// requiredMembers returns the RFC 7638 Section 3.2 members, sorted by name.
func requiredMembers(key *keys.Key) (object, error) {
	var names []string
	switch key.Algorithm() {
	case keys.RSA:
		names = []string{"e", "n"}
	case keys.EC:
		names = []string{"crv", "x", "y"}
	case keys.OCT:
		names = []string{"k"}
	default:
		return nil, fmt.Errorf("%w: no thumbprint members for %s", keys.ErrUnsupportedAlgorithm, key.Algorithm())
	}

	material := key.Material()
	if key.Type() == keys.Private {
		pub := key.PublicKey()
		if pub == nil {
			if ec, ok := material.(*keys.ECPrivateKey); ok {
				x, y, err := ec.PublicPoint()
				if err != nil {
					return nil, err
				}
				pub = keys.New(&keys.ECPublicKey{Curve: ec.Curve, X: x, Y: y}, key.Format(), nil)
			}
		}
		if pub == nil {
			return nil, fmt.Errorf("%w: private key has no public part", keys.ErrMissingField)
		}
		material = pub.Material()
	}

	params, err := parameters(material)
	if err != nil {
		return nil, err
	}
	params.set("kty", kty(key.Algorithm()))
	names = append(names, "kty")

	var out object
	for _, m := range params {
		if slices.Contains(names, m.name) {
			out = append(out, m)
		}
	}
	if len(out) != len(names) {
		return nil, fmt.Errorf("%w: %s JWK missing required fields for thumbprint", keys.ErrMissingField, key.Algorithm())
	}
	slices.SortFunc(out, func(a, b member) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

// KeyAuthorization computes the key authorization string for ACME challenges.
// This combines a token with the JWK thumbprint as defined in RFC 8555.
//
// The key authorization is: token || '.' || base64url(SHA-256(JWK))
func KeyAuthorization(token string, key *keys.Key) (string, error) {
	thumbprint, err := ThumbprintSHA256(key)
	if err != nil {
		return "", fmt.Errorf("failed to compute JWK thumbprint: %w", err)
	}
	return fmt.Sprintf("%s.%s", token, thumbprint), nil
}
