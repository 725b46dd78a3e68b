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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalPointMatchesElliptic(t *testing.T) {
	for _, name := range []string{P224, P256, P384, P521} {
		c, err := Resolve(name)
		require.NoError(t, err)
		ec, err := c.Elliptic()
		require.NoError(t, err)

		k, err := ecdsa.GenerateKey(ec, rand.Reader)
		require.NoError(t, err)

		//nolint:staticcheck // reference encoding
		assert.Equal(t, elliptic.Marshal(ec, k.X, k.Y), c.MarshalPoint(k.X, k.Y), name)

		x, y, err := c.UnmarshalPoint(elliptic.MarshalCompressed(ec, k.X, k.Y))
		require.NoError(t, err, name)
		assert.Equal(t, 0, x.Cmp(k.X))
		assert.Equal(t, 0, y.Cmp(k.Y))
	}
}

func TestUnmarshalCompressedSecp256k1(t *testing.T) {
	c, err := Resolve(Secp256k1)
	require.NoError(t, err)

	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	x, y, err := c.UnmarshalPoint(pub.SerializeCompressed())
	require.NoError(t, err)
	assert.Equal(t, pub.SerializeUncompressed(), c.MarshalPoint(x, y))
}

func TestUnmarshalPointRejects(t *testing.T) {
	c, err := Resolve(P256)
	require.NoError(t, err)

	good := c.MarshalPoint(c.Params.Gx, c.Params.Gy)
	bad := append([]byte(nil), good...)
	bad[len(bad)-1] ^= 1

	for name, data := range map[string][]byte{
		"empty":     nil,
		"short":     good[:10],
		"prefix":    append([]byte{5}, good[1:]...),
		"off curve": bad,
	} {
		_, _, err := c.UnmarshalPoint(data)
		assert.ErrorIs(t, err, ErrInvalidPoint, name)
	}
}

func TestUnmarshalPointWithExplicitParams(t *testing.T) {
	c, err := Resolve(P192)
	require.NoError(t, err)

	compressed := append([]byte{2 + byte(c.Params.Gy.Bit(0))}, c.Params.Gx.FillBytes(make([]byte, 24))...)
	x, y, err := c.Params.UnmarshalPoint(compressed)
	require.NoError(t, err)
	assert.Equal(t, 0, x.Cmp(c.Params.Gx))
	assert.Equal(t, 0, y.Cmp(c.Params.Gy))

	_, _, err = Params{}.UnmarshalPoint(compressed)
	assert.ErrorIs(t, err, ErrInvalidPoint)

	_, _, err = c.Params.UnmarshalPoint(append([]byte{2}, new(big.Int).Set(c.Params.P).FillBytes(make([]byte, 24))...))
	assert.ErrorIs(t, err, ErrInvalidPoint)
}
