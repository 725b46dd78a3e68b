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
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
)

func requireMissing(t *testing.T, err error, fields ...string) *MissingFieldError {
	t.Helper()
	require.Error(t, err)
	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf), "expected *MissingFieldError, got %T: %v", err, err)
	assert.Equal(t, fields, mf.Fields)
	assert.ErrorIs(t, err, ErrMissingField)
	return mf
}

func TestRSABuildPublicReportsAllMissing(t *testing.T) {
	_, err := RSAParams{}.BuildPublic()
	mf := requireMissing(t, err, "n", "e")
	assert.False(t, mf.Combination)
	assert.NotErrorIs(t, err, ErrInvalidFieldCombination)

	_, err = RSAParams{Modulus: big.NewInt(77)}.BuildPublic()
	requireMissing(t, err, "e")
}

func TestRSABuildAllOrNothing(t *testing.T) {
	n, e := big.NewInt(3233), big.NewInt(17)
	full := RSAParams{
		Modulus:         n,
		PublicExponent:  e,
		PrivateExponent: big.NewInt(2753),
		PrimeP:          big.NewInt(61),
		PrimeQ:          big.NewInt(53),
		PrimeExponentP:  big.NewInt(53),
		PrimeExponentQ:  big.NewInt(49),
		CRTCoefficient:  big.NewInt(38),
	}

	m, err := full.Build()
	require.NoError(t, err)
	assert.Equal(t, Private, m.Type())
	assert.Equal(t, RSA, m.Algorithm())

	m, err = RSAParams{Modulus: n, PublicExponent: e}.Build()
	require.NoError(t, err)
	assert.Equal(t, Public, m.Type())

	partial := RSAParams{Modulus: n, PublicExponent: e, PrimeP: big.NewInt(61)}
	_, err = partial.Build()
	mf := requireMissing(t, err, "d", "q", "dp", "dq", "qi")
	assert.True(t, mf.Combination)
	assert.ErrorIs(t, err, ErrInvalidFieldCombination)

	// Every strict subset fails.
	setters := []func(*RSAParams){
		func(p *RSAParams) { p.PrivateExponent = nil },
		func(p *RSAParams) { p.PrimeP = nil },
		func(p *RSAParams) { p.PrimeQ = nil },
		func(p *RSAParams) { p.PrimeExponentP = nil },
		func(p *RSAParams) { p.PrimeExponentQ = nil },
		func(p *RSAParams) { p.CRTCoefficient = nil },
	}
	for i, unset := range setters {
		p := full
		unset(&p)
		_, err := p.Build()
		assert.ErrorIs(t, err, ErrInvalidFieldCombination, "field %d", i)
	}
}

func TestRSABuildPrivateRequiresPublicFirst(t *testing.T) {
	_, err := RSAParams{PrivateExponent: big.NewInt(1)}.BuildPrivate()
	requireMissing(t, err, "n", "e")
}

func TestRSAWithCRT(t *testing.T) {
	p := RSAParams{
		Modulus:         big.NewInt(3233),
		PublicExponent:  big.NewInt(17),
		PrivateExponent: big.NewInt(2753),
		PrimeP:          big.NewInt(61),
		PrimeQ:          big.NewInt(53),
	}.WithCRT()
	assert.Equal(t, int64(53), p.PrimeExponentP.Int64())
	assert.Equal(t, int64(49), p.PrimeExponentQ.Int64())
	assert.Equal(t, int64(38), p.CRTCoefficient.Int64())

	pub := RSAParams{Modulus: big.NewInt(3233)}.WithCRT()
	assert.Nil(t, pub.PrimeExponentP)
}

func TestDSABuild(t *testing.T) {
	p, q, g := big.NewInt(23), big.NewInt(11), big.NewInt(4)

	m, err := DSAParams{P: p, Q: q, G: g, X: big.NewInt(3)}.Build()
	require.NoError(t, err)
	priv := m.(*DSAPrivateKey)
	assert.Equal(t, int64(18), priv.Public().Y.Int64()) // 4^3 mod 23

	m, err = DSAParams{P: p, Q: q, G: g, Y: big.NewInt(18)}.Build()
	require.NoError(t, err)
	assert.Equal(t, Public, m.Type())

	_, err = DSAParams{P: p, Q: q, G: g}.Build()
	mf := requireMissing(t, err, "x", "y")
	assert.True(t, mf.Combination)

	_, err = DSAParams{Q: q, X: big.NewInt(3)}.Build()
	requireMissing(t, err, "p", "g")

	_, err = DSAParams{P: p, Q: q, G: g}.BuildPublic()
	requireMissing(t, err, "y")
}

func TestDSAPrivateRejectsNonPositiveX(t *testing.T) {
	_, err := DSAParams{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4), X: big.NewInt(0)}.BuildPrivate()
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDSARejectsOversizedParameters(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 32768)
	huge.Sub(huge, big.NewInt(1))

	tests := []struct {
		name   string
		params DSAParams
	}{
		{"p too large", DSAParams{P: huge, Q: big.NewInt(11), G: big.NewInt(4), X: big.NewInt(3)}},
		{"x not below q", DSAParams{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4), X: big.NewInt(11)}},
		{"q not below p", DSAParams{P: big.NewInt(23), Q: big.NewInt(23), G: big.NewInt(4), X: big.NewInt(3)}},
		{"huge x", DSAParams{P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(4), X: huge}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := tt.params.Build()
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	limit := new(big.Int).Lsh(big.NewInt(1), MaxDSAModulusBits-1)
	_, err := DSAParams{P: limit, Q: big.NewInt(11), G: big.NewInt(4), Y: big.NewInt(5)}.BuildPublic()
	assert.NoError(t, err)
}

func TestECBuild(t *testing.T) {
	c, err := curve.Resolve(curve.P256)
	require.NoError(t, err)
	gx, gy := c.Params.Gx, c.Params.Gy

	m, err := ECParams{Curve: c, X: gx, Y: gy}.Build()
	require.NoError(t, err)
	assert.Equal(t, Public, m.Type())

	m, err = ECParams{Curve: c, D: big.NewInt(1)}.Build()
	require.NoError(t, err)
	priv := m.(*ECPrivateKey)
	assert.Nil(t, priv.Public(), "no public point without x and y")
	x, y, err := priv.PublicPoint()
	require.NoError(t, err)
	assert.Equal(t, 0, x.Cmp(gx))
	assert.Equal(t, 0, y.Cmp(gy))

	m, err = ECParams{Curve: c, D: big.NewInt(1), X: gx}.Build()
	require.NoError(t, err)
	assert.Nil(t, m.(*ECPrivateKey).Public(), "x alone is ignored")

	m, err = ECParams{Curve: c, D: big.NewInt(1), X: gx, Y: gy}.Build()
	require.NoError(t, err)
	assert.NotNil(t, m.(*ECPrivateKey).Public())
}

func TestECBuildMissing(t *testing.T) {
	c, _ := curve.Resolve(curve.P384)

	_, err := ECParams{Curve: c, X: big.NewInt(1)}.Build()
	requireMissing(t, err, "y")

	_, err = ECParams{Curve: c}.Build()
	requireMissing(t, err, "x", "y")

	_, err = ECParams{X: big.NewInt(1), Y: big.NewInt(1)}.Build()
	requireMissing(t, err, "crv")
}

func TestECBuildRejectsPointOffCurve(t *testing.T) {
	c, _ := curve.Resolve(curve.P256)
	_, err := ECParams{Curve: c, X: big.NewInt(1), Y: big.NewInt(1)}.Build()
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ECParams{Curve: c, D: big.NewInt(5), X: big.NewInt(1), Y: big.NewInt(1)}.Build()
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSecretKey(t *testing.T) {
	k, err := NewSecretKey([]byte{}, "")
	require.NoError(t, err, "empty secret is permitted")
	assert.Equal(t, DefaultMAC, k.MAC)
	assert.Equal(t, Secret, k.Type())

	k, err = NewSecretKey([]byte("s3cr3t"), "hs512")
	require.NoError(t, err)
	assert.Equal(t, "HS512", k.MAC)
	h, err := k.Hash()
	require.NoError(t, err)
	assert.Equal(t, "SHA-512", h.String())

	_, err = NewSecretKey(nil, "HS256")
	requireMissing(t, err, "k")

	k, _ = NewSecretKey([]byte("x"), "A128KW")
	_, err = k.Hash()
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestMissingFieldErrorMessage(t *testing.T) {
	err := &MissingFieldError{Algorithm: "RSA", Fields: []string{"n", "e"}}
	assert.Equal(t, "RSA: missing required field(s): n, e", err.Error())
}
