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

// Package keys defines the normalized key representation shared by every
// go-keyformat codec, together with the per-algorithm builders that
// validate parameter sets and assemble key material.
//
// A Key is immutable. Its material is one of a closed set of parameter
// structs (RSA, DSA, EC, OCT; public or private), so codecs switch on the
// material variant instead of inspecting native key types:
//
//	switch m := key.Material().(type) {
//	case *keys.RSAPublicKey:
//	case *keys.RSAPrivateKey:
//	...
//	}
//
// Builders enforce the field rules of each algorithm and always report the
// complete set of missing fields in one *MissingFieldError.
package keys

import (
	"maps"
	"slices"
)

// Type is the kind of key.
type Type int

const (
	Public Type = iota + 1
	Private
	Secret
)

// String returns the upper-case name of the key type.
func (t Type) String() string {
	switch t {
	case Public:
		return "PUBLIC"
	case Private:
		return "PRIVATE"
	case Secret:
		return "SECRET"
	default:
		return "UNKNOWN"
	}
}

// Algorithm is the key algorithm family.
type Algorithm int

const (
	RSA Algorithm = iota + 1
	DSA
	EC
	OCT
)

// String returns the upper-case name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case RSA:
		return "RSA"
	case DSA:
		return "DSA"
	case EC:
		return "EC"
	case OCT:
		return "OCT"
	default:
		return "UNKNOWN"
	}
}

// ParameterNames returns the JWK parameter names that carry key material
// for the algorithm, "kty" included. These names never appear in a Key's
// attributes.
func (a Algorithm) ParameterNames() []string {
	switch a {
	case RSA:
		return []string{"kty", "n", "e", "d", "p", "q", "dp", "dq", "qi"}
	case DSA:
		return []string{"kty", "p", "q", "g", "x", "y"}
	case EC:
		return []string{"kty", "crv", "x", "y", "d"}
	case OCT:
		return []string{"kty", "k"}
	default:
		return []string{"kty"}
	}
}

// Format identifies the encoding a key was decoded from or is encoded to.
// It is provenance only; it never changes how a key behaves.
type Format int

const (
	// FormatNone marks keys built directly from native key objects.
	FormatNone Format = iota
	FormatJWK
	FormatPEM
	FormatOpenSSH
	FormatSSH2
)

// String returns the upper-case name of the format.
func (f Format) String() string {
	switch f {
	case FormatJWK:
		return "JWK"
	case FormatPEM:
		return "PEM"
	case FormatOpenSSH:
		return "OPENSSH"
	case FormatSSH2:
		return "SSH2"
	default:
		return "NONE"
	}
}

// Material is the algorithm-specific content of a Key. The set of
// implementations is closed: *RSAPublicKey, *RSAPrivateKey, *DSAPublicKey,
// *DSAPrivateKey, *ECPublicKey, *ECPrivateKey and *SecretKey.
type Material interface {
	Algorithm() Algorithm
	Type() Type
	material()
}

// privateMaterial is implemented by private variants able to produce their
// public counterpart.
type privateMaterial interface {
	Material
	publicMaterial() Material
}

// AttributeComment is the attribute holding an SSH key comment. The SSH2
// codec shares it with the RFC 4716 "Comment" header.
const AttributeComment = "Comment"

// Key is the normalized key produced and consumed by every codec.
type Key struct {
	material   Material
	format     Format
	public     *Key
	attributes map[string]string
}

// New returns a Key holding material. The paired public key of a private
// key is recomputed from the material when enough public fields are
// present. Attribute names that carry key parameters for the algorithm are
// discarded.
func New(material Material, format Format, attributes map[string]string) *Key {
	k := &Key{
		material:   material,
		format:     format,
		attributes: filterAttributes(material.Algorithm(), attributes),
	}
	if pm, ok := material.(privateMaterial); ok {
		if pub := pm.publicMaterial(); pub != nil {
			k.public = &Key{
				material:   pub,
				format:     format,
				attributes: maps.Clone(k.attributes),
			}
		}
	}
	return k
}

func filterAttributes(alg Algorithm, attributes map[string]string) map[string]string {
	out := make(map[string]string, len(attributes))
	reserved := alg.ParameterNames()
	for name, value := range attributes {
		if slices.Contains(reserved, name) {
			continue
		}
		out[name] = value
	}
	return out
}

// Type returns the key type.
func (k *Key) Type() Type {
	return k.material.Type()
}

// Algorithm returns the key algorithm.
func (k *Key) Algorithm() Algorithm {
	return k.material.Algorithm()
}

// Format returns the format the key was decoded from.
func (k *Key) Format() Format {
	return k.format
}

// Material returns the key material. It is shared with the Key and must
// not be modified.
func (k *Key) Material() Material {
	return k.material
}

// PublicKey returns the paired public key of a private key, or nil when
// the source carried too few public fields to derive it. Public keys
// return themselves; secret keys return nil.
func (k *Key) PublicKey() *Key {
	if k.Type() == Public {
		return k
	}
	return k.public
}

// Attributes returns a copy of the non-parameter fields carried by the
// source encoding (JWK "kid", "use", SSH comments and headers, ...).
func (k *Key) Attributes() map[string]string {
	return maps.Clone(k.attributes)
}

// Attribute returns a single attribute value, or "" when absent.
func (k *Key) Attribute(name string) string {
	return k.attributes[name]
}

// WithFormat returns a copy of the key tagged with another format.
func (k *Key) WithFormat(format Format) *Key {
	return New(k.material, format, k.attributes)
}

// WithAttributes returns a copy of the key with its attributes replaced.
func (k *Key) WithAttributes(attributes map[string]string) *Key {
	return New(k.material, k.format, attributes)
}

// Equal reports whether two keys hold the same material and attributes.
// The format tag is not compared.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	return materialEqual(k.material, o.material) && maps.Equal(k.attributes, o.attributes)
}

func materialEqual(a, b Material) bool {
	switch x := a.(type) {
	case *RSAPublicKey:
		y, ok := b.(*RSAPublicKey)
		return ok && x.Equal(y)
	case *RSAPrivateKey:
		y, ok := b.(*RSAPrivateKey)
		return ok && x.Equal(y)
	case *DSAPublicKey:
		y, ok := b.(*DSAPublicKey)
		return ok && x.Equal(y)
	case *DSAPrivateKey:
		y, ok := b.(*DSAPrivateKey)
		return ok && x.Equal(y)
	case *ECPublicKey:
		y, ok := b.(*ECPublicKey)
		return ok && x.Equal(y)
	case *ECPrivateKey:
		y, ok := b.(*ECPrivateKey)
		return ok && x.Equal(y)
	case *SecretKey:
		y, ok := b.(*SecretKey)
		return ok && x.Equal(y)
	}
	return false
}
