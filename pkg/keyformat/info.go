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

package keyformat

import (
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/openssh"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// Info summarizes a key for display.
type Info struct {
	Type       string            `json:"type"`
	Algorithm  string            `json:"algorithm"`
	Format     string            `json:"format"`
	Bits       int               `json:"bits"`
	Curve      string            `json:"curve,omitempty"`
	MAC        string            `json:"mac,omitempty"`
	HasPublic  bool              `json:"has_public"`
	Attributes map[string]string `json:"attributes,omitempty"`

	// Fingerprint is the OpenSSH SHA256 fingerprint, empty for keys with
	// no SSH form.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Thumbprint is the RFC 7638 SHA-256 JWK thumbprint, empty for DSA
	// keys.
	Thumbprint string `json:"thumbprint,omitempty"`
}

// Describe returns the Info for key. Fingerprints that cannot be computed
// for the key's algorithm or curve are left empty.
func Describe(key *keys.Key) Info {
	info := Info{
		Type:       key.Type().String(),
		Algorithm:  key.Algorithm().String(),
		Format:     key.Format().String(),
		HasPublic:  key.PublicKey() != nil,
		Attributes: key.Attributes(),
	}

	switch m := key.Material().(type) {
	case *keys.RSAPublicKey:
		info.Bits = m.N.BitLen()
	case *keys.RSAPrivateKey:
		info.Bits = m.N.BitLen()
	case *keys.DSAPublicKey:
		info.Bits = m.P.BitLen()
	case *keys.DSAPrivateKey:
		info.Bits = m.P.BitLen()
	case *keys.ECPublicKey:
		info.Bits, info.Curve = m.Curve.BitSize(), m.Curve.Name
	case *keys.ECPrivateKey:
		info.Bits, info.Curve = m.Curve.BitSize(), m.Curve.Name
	case *keys.SecretKey:
		info.Bits, info.MAC = len(m.Secret)*8, m.MAC
	}

	if key.Type() != keys.Secret {
		if fp, err := openssh.Fingerprint(key); err == nil {
			info.Fingerprint = fp
		}
	}
	if tp, err := jwk.ThumbprintSHA256(key); err == nil {
		info.Thumbprint = tp
	}
	return info
}
