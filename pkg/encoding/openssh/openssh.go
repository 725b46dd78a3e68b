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

// Package openssh implements the OpenSSH key codec: single-line public
// keys as found in authorized_keys and id_*.pub files, and unencrypted
// "openssh-key-v1" private keys.
//
// Supported key types are ssh-rsa, ssh-dss and ecdsa-sha2-nistp256/384/521.
// The key comment is carried as the keys.AttributeComment attribute.
package openssh

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/jeremyhahn/go-keyformat/internal/sshwire"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

// IsPublicKey reports whether data starts with an OpenSSH public key line.
func IsPublicKey(data []byte) bool {
	line := firstLine(data)
	return strings.HasPrefix(line, sshwire.KeyRSA+" ") ||
		strings.HasPrefix(line, sshwire.KeyDSA+" ") ||
		strings.HasPrefix(line, sshwire.KeyECDSAPrefix)
}

// IsPrivateKey reports whether data contains an OpenSSH private key
// envelope.
func IsPrivateKey(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN "+blockType+"-----"))
}

// Decode parses an OpenSSH private key or public key line.
func Decode(data []byte) (*keys.Key, error) {
	if IsPrivateKey(data) {
		return decodePrivate(data)
	}
	return decodePublic(data)
}

// firstLine returns the first line that is neither blank nor a comment.
func firstLine(data []byte) string {
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 4096), len(data)+1)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// decodePublic parses "<type> <base64 blob> [comment]".
func decodePublic(data []byte) (*keys.Key, error) {
	fields := strings.Fields(firstLine(data))
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: expected \"<type> <base64> [comment]\"", keys.ErrMalformedInput)
	}

	blob, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: public key base64: %w", keys.ErrMalformedInput, err)
	}
	m, err := sshwire.ParsePublicKey(blob)
	if err != nil {
		return nil, err
	}
	if id, _ := sshwire.Identifier(m); id != fields[0] {
		return nil, fmt.Errorf("%w: key type %q does not match blob type %q", keys.ErrMalformedInput, fields[0], id)
	}

	var attrs map[string]string
	if comment := strings.Join(fields[2:], " "); comment != "" {
		attrs = map[string]string{keys.AttributeComment: comment}
	}
	return keys.New(m, keys.FormatOpenSSH, attrs), nil
}

// MarshalAuthorizedKey writes the public half of key as a single line
// terminated by a newline.
func MarshalAuthorizedKey(key *keys.Key) ([]byte, error) {
	blob, err := sshwire.MarshalPublicKey(key.Material())
	if err != nil {
		return nil, err
	}
	id, err := sshwire.Identifier(key.Material())
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(id)
	b.WriteByte(' ')
	b.WriteString(base64.StdEncoding.EncodeToString(blob))
	if comment := key.Attribute(keys.AttributeComment); comment != "" {
		b.WriteByte(' ')
		b.WriteString(strings.Join(strings.Fields(comment), " "))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Encode writes key with the default Encoder.
func Encode(key *keys.Key) ([]byte, error) {
	return Encoder{}.Encode(key)
}

// Fingerprint returns the SHA256 fingerprint of the key's public half in
// the form printed by ssh-keygen -l.
func Fingerprint(key *keys.Key) (string, error) {
	pub, err := sshPublicKey(key)
	if err != nil {
		return "", err
	}
	return ssh.FingerprintSHA256(pub), nil
}

// FingerprintMD5 returns the legacy colon-separated MD5 fingerprint.
func FingerprintMD5(key *keys.Key) (string, error) {
	pub, err := sshPublicKey(key)
	if err != nil {
		return "", err
	}
	return ssh.FingerprintLegacyMD5(pub), nil
}

// wireKey presents an encoded public key blob to the x/crypto/ssh helpers.
// Signature verification is not available.
type wireKey struct {
	id   string
	blob []byte
}

func (k wireKey) Type() string    { return k.id }
func (k wireKey) Marshal() []byte { return k.blob }

func (k wireKey) Verify([]byte, *ssh.Signature) error {
	return errors.New("openssh: verification is not supported")
}

func sshPublicKey(key *keys.Key) (ssh.PublicKey, error) {
	blob, err := sshwire.MarshalPublicKey(key.Material())
	if err != nil {
		return nil, err
	}
	id, err := sshwire.Identifier(key.Material())
	if err != nil {
		return nil, err
	}
	return wireKey{id: id, blob: blob}, nil
}
