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
	"crypto/rand"
	"encoding/binary"
	stdpem "encoding/pem"
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-keyformat/internal/sshwire"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

const (
	blockType = "OPENSSH PRIVATE KEY"
	authMagic = "openssh-key-v1\x00"

	cipherNone = "none"
	kdfNone    = "none"

	// blockSize is the padding unit of the private section for the
	// "none" cipher.
	blockSize = 8
)

var (
	// ErrCheckMismatch is returned when the two check integers of a
	// private section differ.
	ErrCheckMismatch = errors.New("openssh: check integers do not match")

	// ErrBadPadding is returned when the private section padding is not
	// the sequence 1, 2, 3, ...
	ErrBadPadding = errors.New("openssh: invalid padding")
)

// Encoder writes keys in OpenSSH format. Private keys are written as an
// unencrypted openssh-key-v1 container, public keys as a single line.
type Encoder struct {
	// Rand supplies the private section check integer. Defaults to
	// crypto/rand.Reader.
	Rand io.Reader
}

// Encode writes key.
func (e Encoder) Encode(key *keys.Key) ([]byte, error) {
	switch key.Type() {
	case keys.Private:
		return e.marshalPrivate(key)
	case keys.Public:
		return MarshalAuthorizedKey(key)
	}
	return nil, fmt.Errorf("%w: secret keys have no OpenSSH form", keys.ErrUnsupportedAlgorithm)
}

// openssh-key-v1 layout:
//
//	"openssh-key-v1\0"
//	string ciphername, string kdfname, string kdfoptions
//	uint32 number of keys (1)
//	string public key blob
//	string private section:
//	    uint32 check, uint32 check
//	    string keytype, private fields, string comment
//	    padding 1, 2, 3, ... to a multiple of the block size
func decodePrivate(data []byte) (*keys.Key, error) {
	var block *stdpem.Block
	if i := bytes.Index(data, []byte("-----BEGIN "+blockType+"-----")); i >= 0 {
		block, _ = stdpem.Decode(data[i:])
	}
	if block == nil || block.Type != blockType {
		return nil, fmt.Errorf("%w: no %s envelope found", keys.ErrMalformedInput, blockType)
	}
	if !bytes.HasPrefix(block.Bytes, []byte(authMagic)) {
		return nil, fmt.Errorf("%w: missing openssh-key-v1 magic", keys.ErrMalformedInput)
	}

	r := sshwire.NewReader(block.Bytes[len(authMagic):])
	cipher, err := r.Name()
	if err != nil {
		return nil, err
	}
	kdf, err := r.Name()
	if err != nil {
		return nil, err
	}
	if _, err := r.String(); err != nil {
		return nil, err
	}
	if cipher != cipherNone || kdf != kdfNone {
		return nil, fmt.Errorf("%w: encrypted OpenSSH key (cipher %q, kdf %q)", keys.ErrUnsupportedKeyFormat, cipher, kdf)
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: %d keys in one file", keys.ErrUnsupportedKeyFormat, n)
	}
	pubBlob, err := r.String()
	if err != nil {
		return nil, err
	}
	section, err := r.String()
	if err != nil {
		return nil, err
	}

	m, comment, err := readPrivateSection(section)
	if err != nil {
		return nil, err
	}

	// The outer public key must describe the same key.
	pub, err := sshwire.MarshalPublicKey(m)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(pub, pubBlob) {
		return nil, fmt.Errorf("%w: public key does not match private key", keys.ErrInvalidKey)
	}

	var attrs map[string]string
	if comment != "" {
		attrs = map[string]string{keys.AttributeComment: comment}
	}
	return keys.New(m, keys.FormatOpenSSH, attrs), nil
}

func readPrivateSection(section []byte) (keys.Material, string, error) {
	if len(section)%blockSize != 0 {
		return nil, "", fmt.Errorf("%w: private section length %d is not a multiple of %d", keys.ErrMalformedInput, len(section), blockSize)
	}
	r := sshwire.NewReader(section)
	check1, err := r.Uint32()
	if err != nil {
		return nil, "", err
	}
	check2, err := r.Uint32()
	if err != nil {
		return nil, "", err
	}
	if check1 != check2 {
		return nil, "", fmt.Errorf("%w: %w", keys.ErrMalformedInput, ErrCheckMismatch)
	}

	name, err := r.Name()
	if err != nil {
		return nil, "", err
	}
	m, err := sshwire.ReadPrivateFields(name, r)
	if err != nil {
		return nil, "", err
	}
	comment, err := r.Name()
	if err != nil {
		return nil, "", err
	}

	for i, b := range r.Rest() {
		if b != byte(i+1) {
			return nil, "", fmt.Errorf("%w: %w", keys.ErrMalformedInput, ErrBadPadding)
		}
	}
	return m, comment, nil
}

func (e Encoder) marshalPrivate(key *keys.Key) ([]byte, error) {
	pubBlob, err := sshwire.MarshalPublicKey(key.Material())
	if err != nil {
		return nil, err
	}

	rnd := e.Rand
	if rnd == nil {
		rnd = rand.Reader
	}
	var check uint32
	if err := binary.Read(rnd, binary.BigEndian, &check); err != nil {
		return nil, fmt.Errorf("failed to generate check integer: %w", err)
	}

	section := sshwire.NewWriter().Uint32(check).Uint32(check)
	if err := sshwire.WritePrivateFields(section, key.Material()); err != nil {
		return nil, err
	}
	section.Name(key.Attribute(keys.AttributeComment))
	body := section.Bytes()
	for i := 0; len(body)%blockSize != 0; i++ {
		body = append(body, byte(i+1))
	}

	out := sshwire.NewWriter().
		Raw([]byte(authMagic)).
		Name(cipherNone).
		Name(kdfNone).
		String(nil).
		Uint32(1).
		String(pubBlob).
		String(body).
		Bytes()

	return stdpem.EncodeToMemory(&stdpem.Block{Type: blockType, Bytes: out}), nil
}
