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

package openssh

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rsa"
	stdpem "encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/jeremyhahn/go-keyformat/internal/sshwire"
	"github.com/jeremyhahn/go-keyformat/internal/testutil"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

var sshCurves = []string{"P-256", "P-384", "P-521"}

func TestDecodeAuthorizedKey(t *testing.T) {
	natives := map[string]any{
		"RSA": &testutil.RSAKey(t).PublicKey,
		"DSA": &testutil.DSAKey(t).PublicKey,
	}
	for _, name := range sshCurves {
		natives[name] = &testutil.ECKey(t, name).PublicKey
	}

	for name, native := range natives {
		t.Run(name, func(t *testing.T) {
			sshKey, err := ssh.NewPublicKey(native)
			require.NoError(t, err)
			line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshKey))) + " alice@example.com\n"

			key, err := Decode([]byte(line))
			require.NoError(t, err)
			assert.Equal(t, keys.FormatOpenSSH, key.Format())
			assert.Equal(t, keys.Public, key.Type())
			assert.Equal(t, "alice@example.com", key.Attribute(keys.AttributeComment))
			assert.True(t, key.WithAttributes(nil).Equal(testutil.Key(t, native)))

			out, err := Encode(key)
			require.NoError(t, err)
			assert.Equal(t, line, string(out))

			parsed, comment, _, _, err := ssh.ParseAuthorizedKey(out)
			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", comment)
			assert.Equal(t, sshKey.Marshal(), parsed.Marshal())
		})
	}
}

func TestDecodeAuthorizedKeySkipsCommentLines(t *testing.T) {
	sshKey, err := ssh.NewPublicKey(&testutil.ECKey(t, "P-256").PublicKey)
	require.NoError(t, err)
	data := "# deploy keys\n\n" + string(ssh.MarshalAuthorizedKey(sshKey))

	key, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, key.Attribute(keys.AttributeComment))
	assert.True(t, IsPublicKey([]byte(data)))
}

func TestDecodeAuthorizedKeyErrors(t *testing.T) {
	sshKey, err := ssh.NewPublicKey(&testutil.RSAKey(t).PublicKey)
	require.NoError(t, err)
	blob := string(ssh.MarshalAuthorizedKey(sshKey))

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", keys.ErrMalformedInput},
		{"single field", "ssh-rsa", keys.ErrMalformedInput},
		{"bad base64", "ssh-rsa !!!!", keys.ErrMalformedInput},
		{"type mismatch", strings.Replace(blob, "ssh-rsa", "ssh-dss", 1), keys.ErrMalformedInput},
		{"unsupported type", "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIGJhZA==", keys.ErrUnsupportedKeyFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrivateKeyFromSSH(t *testing.T) {
	natives := map[string]any{
		"RSA": testutil.RSAKey(t),
	}
	for _, name := range sshCurves {
		natives[name] = testutil.ECKey(t, name)
	}

	for name, native := range natives {
		t.Run(name, func(t *testing.T) {
			block, err := ssh.MarshalPrivateKey(native, "bob@host")
			require.NoError(t, err)

			key, err := Decode(stdpem.EncodeToMemory(block))
			require.NoError(t, err)
			assert.Equal(t, keys.Private, key.Type())
			assert.Equal(t, keys.FormatOpenSSH, key.Format())
			assert.Equal(t, "bob@host", key.Attribute(keys.AttributeComment))
			assert.True(t, key.WithAttributes(nil).Equal(testutil.Key(t, native)))
		})
	}
}

func TestPrivateKeyParsesWithSSH(t *testing.T) {
	natives := map[string]any{
		"RSA": testutil.RSAKey(t),
	}
	for _, name := range sshCurves {
		natives[name] = testutil.ECKey(t, name)
	}

	for name, native := range natives {
		t.Run(name, func(t *testing.T) {
			key := testutil.Key(t, native).WithAttributes(map[string]string{keys.AttributeComment: "c"})
			out, err := Encode(key)
			require.NoError(t, err)
			assert.True(t, IsPrivateKey(out))

			parsed, err := ssh.ParseRawPrivateKey(out)
			require.NoError(t, err)
			switch want := native.(type) {
			case *rsa.PrivateKey:
				assert.True(t, want.Equal(parsed))
			case *ecdsa.PrivateKey:
				assert.True(t, want.Equal(parsed))
			}

			back, err := Decode(out)
			require.NoError(t, err)
			assert.True(t, back.Equal(key))
		})
	}
}

func TestDSAPrivateRoundTrip(t *testing.T) {
	key := testutil.Key(t, testutil.DSAKey(t))
	out, err := Encode(key)
	require.NoError(t, err)

	back, err := Decode(out)
	require.NoError(t, err)
	assert.True(t, back.Equal(key))
	require.NotNil(t, back.PublicKey())
}

func TestEncoderCheckIntegerFromRand(t *testing.T) {
	key := testutil.Key(t, testutil.ECKey(t, "P-256"))
	enc := Encoder{Rand: bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef})}
	out, err := enc.Encode(key)
	require.NoError(t, err)

	block, _ := stdpem.Decode(out)
	require.NotNil(t, block)
	assert.Contains(t, string(block.Bytes), "\xde\xad\xbe\xef\xde\xad\xbe\xef")

	_, err = Encoder{Rand: bytes.NewReader(nil)}.Encode(key)
	assert.Error(t, err)
}

// container assembles an openssh-key-v1 file around a private section.
func container(t *testing.T, cipher string, nkeys uint32, pub, section []byte) []byte {
	t.Helper()
	body := sshwire.NewWriter().
		Raw([]byte(authMagic)).
		Name(cipher).
		Name(cipher).
		String(nil).
		Uint32(nkeys).
		String(pub).
		String(section).
		Bytes()
	return stdpem.EncodeToMemory(&stdpem.Block{Type: blockType, Bytes: body})
}

// privateSection writes an unpadded private section with an empty comment.
func privateSection(t *testing.T, key *keys.Key, check1, check2 uint32) []byte {
	t.Helper()
	w := sshwire.NewWriter().Uint32(check1).Uint32(check2)
	require.NoError(t, sshwire.WritePrivateFields(w, key.Material()))
	return w.Name("").Bytes()
}

func pad(b []byte) []byte {
	for i := 0; len(b)%blockSize != 0; i++ {
		b = append(b, byte(i+1))
	}
	return b
}

func TestPrivateKeyErrors(t *testing.T) {
	key := testutil.Key(t, testutil.ECKey(t, "P-256"))
	pub, err := sshwire.MarshalPublicKey(key.Material())
	require.NoError(t, err)

	good := pad(privateSection(t, key, 7, 7))

	other := testutil.Key(t, testutil.ECKey(t, "P-384"))
	otherPub, err := sshwire.MarshalPublicKey(other.Material())
	require.NoError(t, err)

	badPad := append(privateSection(t, key, 7, 7), 9)
	for len(badPad)%blockSize != 0 {
		badPad = append(badPad, 9)
	}

	tests := []struct {
		name  string
		input []byte
		want  []error
	}{
		{"good", container(t, "none", 1, pub, good), nil},
		{"encrypted", container(t, "aes256-ctr", 1, pub, good), []error{keys.ErrUnsupportedKeyFormat}},
		{"two keys", container(t, "none", 2, pub, good), []error{keys.ErrUnsupportedKeyFormat}},
		{"check mismatch", container(t, "none", 1, pub, pad(privateSection(t, key, 1, 2))), []error{keys.ErrMalformedInput, ErrCheckMismatch}},
		{"bad padding", container(t, "none", 1, pub, badPad), []error{keys.ErrMalformedInput, ErrBadPadding}},
		{"public mismatch", container(t, "none", 1, otherPub, good), []error{keys.ErrInvalidKey}},
		{"unaligned", container(t, "none", 1, pub, append(good, 1)), []error{keys.ErrMalformedInput}},
		{"bad magic", stdpem.EncodeToMemory(&stdpem.Block{Type: blockType, Bytes: []byte("nope")}), []error{keys.ErrMalformedInput}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.want == nil {
				require.NoError(t, err)
				assert.True(t, got.Equal(key))
				return
			}
			require.Error(t, err)
			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestEncodeSecretKeyUnsupported(t *testing.T) {
	secret, err := keys.NewSecretKey([]byte("k"), "")
	require.NoError(t, err)
	_, err = Encode(keys.New(secret, keys.FormatNone, nil))
	assert.ErrorIs(t, err, keys.ErrUnsupportedAlgorithm)
}

func TestFingerprint(t *testing.T) {
	native := &testutil.ECKey(t, "P-256").PublicKey
	sshKey, err := ssh.NewPublicKey(native)
	require.NoError(t, err)

	priv := testutil.Key(t, testutil.ECKey(t, "P-256"))
	got, err := Fingerprint(priv)
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(sshKey), got)
	assert.True(t, strings.HasPrefix(got, "SHA256:"))

	md5, err := FingerprintMD5(priv.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintLegacyMD5(sshKey), md5)

	dsaKey := testutil.Key(t, testutil.DSAKey(t))
	_, err = Fingerprint(dsaKey)
	require.NoError(t, err)

	_, err = Fingerprint(testutil.Key(t, testutil.ECKey(t, "secp256k1")))
	assert.ErrorIs(t, err, keys.ErrUnsupportedCurve)
}
