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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"

	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// Encoder writes keys as JWK. The zero value writes compact JSON.
type Encoder struct {
	// Indent, when set, pretty-prints the output with this indent string.
	Indent string
}

// Encode writes key as a compact JWK.
func Encode(key *keys.Key) ([]byte, error) {
	return Encoder{}.Encode(key)
}

// EncodeSet writes the keys as a compact JWK Set.
func EncodeSet(ks ...*keys.Key) ([]byte, error) {
	return Encoder{}.EncodeSet(ks...)
}

// Encode writes key as a JWK. Attributes come first in name order, then
// the algorithm parameters in a fixed order, then "kty".
func (e Encoder) Encode(key *keys.Key) ([]byte, error) {
	obj, err := toObject(key)
	if err != nil {
		return nil, err
	}
	return e.format(obj.marshal())
}

// EncodeSet writes the keys as a JWK Set.
func (e Encoder) EncodeSet(ks ...*keys.Key) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"keys":[`)
	for i, key := range ks {
		obj, err := toObject(key)
		if err != nil {
			return nil, fmt.Errorf("keys[%d]: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(obj.marshal())
	}
	buf.WriteString("]}")
	return e.format(buf.Bytes())
}

func (e Encoder) format(compact []byte) ([]byte, error) {
	if e.Indent == "" {
		return compact, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", e.Indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type member struct {
	name  string
	value string
}

// object is a JSON object with a fixed member order.
type object []member

func (o *object) set(name, value string) {
	*o = append(*o, member{name, value})
}

func (o *object) setInt(name string, v *big.Int) {
	if v != nil {
		o.set(name, base64.RawURLEncoding.EncodeToString(v.Bytes()))
	}
}

// setFixed writes v left padded to size bytes, as RFC 7518 requires for EC
// coordinates and private scalars.
func (o *object) setFixed(name string, v *big.Int, size int) {
	switch {
	case v == nil:
	case (v.BitLen()+7)/8 > size:
		o.setInt(name, v)
	default:
		o.set(name, base64.RawURLEncoding.EncodeToString(v.FillBytes(make([]byte, size))))
	}
}

func (o object) has(name string) bool {
	return slices.ContainsFunc(o, func(m member) bool { return m.name == name })
}

func (o object) marshal() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Strings always marshal.
		name, _ := json.Marshal(m.name)
		value, _ := json.Marshal(m.value)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func toObject(key *keys.Key) (object, error) {
	params, err := parameters(key.Material())
	if err != nil {
		return nil, err
	}

	attrs := key.Attributes()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		if !params.has(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	obj := make(object, 0, len(names)+len(params))
	for _, name := range names {
		obj.set(name, attrs[name])
	}
	obj = append(obj, params...)

	// Secret keys carry their MAC name as "alg" unless an attribute already
	// does, or it is the default.
	if sk, ok := key.Material().(*keys.SecretKey); ok && !obj.has("alg") && sk.MAC != keys.DefaultMAC {
		obj.set("alg", sk.MAC)
	}

	obj.set("kty", kty(key.Algorithm()))
	return obj, nil
}

// parameters returns the algorithm members of m in their fixed order,
// without "kty".
func parameters(m keys.Material) (object, error) {
	var obj object
	switch k := m.(type) {
	case *keys.RSAPublicKey:
		obj.setInt("n", k.N)
		obj.setInt("e", k.E)
	case *keys.RSAPrivateKey:
		obj.setInt("n", k.N)
		obj.setInt("e", k.E)
		obj.setInt("d", k.D)
		obj.setInt("p", k.P)
		obj.setInt("q", k.Q)
		obj.setInt("dp", k.DP)
		obj.setInt("dq", k.DQ)
		obj.setInt("qi", k.QI)
	case *keys.DSAPublicKey:
		obj.setInt("p", k.P)
		obj.setInt("q", k.Q)
		obj.setInt("g", k.G)
		obj.setInt("y", k.Y)
	case *keys.DSAPrivateKey:
		obj.setInt("p", k.P)
		obj.setInt("q", k.Q)
		obj.setInt("g", k.G)
		obj.setInt("y", k.Public().Y)
		obj.setInt("x", k.X)
	case *keys.ECPublicKey:
		size := k.Curve.ByteSize()
		obj.set("crv", k.Curve.Name)
		obj.setFixed("x", k.X, size)
		obj.setFixed("y", k.Y, size)
	case *keys.ECPrivateKey:
		size := k.Curve.ByteSize()
		obj.set("crv", k.Curve.Name)
		// The point is written only when the key carries one.
		if k.X != nil && k.Y != nil {
			obj.setFixed("x", k.X, size)
			obj.setFixed("y", k.Y, size)
		}
		obj.setFixed("d", k.D, size)
	case *keys.SecretKey:
		obj.set("k", base64.RawURLEncoding.EncodeToString(k.Secret))
	default:
		return nil, fmt.Errorf("%w: %T", keys.ErrUnsupportedKeyVariant, m)
	}
	return obj, nil
}

func kty(alg keys.Algorithm) string {
	switch alg {
	case keys.RSA:
		return string(KeyTypeRSA)
	case keys.DSA:
		return string(KeyTypeDSA)
	case keys.EC:
		return string(KeyTypeEC)
	default:
		return string(KeyTypeOct)
	}
}
