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

// Package sshwire reads and writes the RFC 4251 length-prefixed field
// encoding shared by the OpenSSH and SSH2 key formats, and the public key
// blobs built on it.
package sshwire

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"

	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

var (
	// ErrTruncated is returned when a field's declared length exceeds the
	// remaining input.
	ErrTruncated = errors.New("sshwire: truncated field")

	// ErrNegativeMPInt is returned for an mpint with its sign bit set.
	ErrNegativeMPInt = errors.New("sshwire: negative mpint")
)

// Reader consumes length-prefixed fields from a buffer. Every length is
// checked against the remaining input before any allocation.
type Reader struct {
	s cryptobyte.String
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{s: cryptobyte.String(data)}
}

func truncated(field string) error {
	return fmt.Errorf("%w: %w: %s", keys.ErrMalformedInput, ErrTruncated, field)
}

// Empty reports whether all input has been consumed.
func (r *Reader) Empty() bool {
	return r.s.Empty()
}

// Rest returns the unread input.
func (r *Reader) Rest() []byte {
	return r.s
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	var v uint32
	if !r.s.ReadUint32(&v) {
		return 0, truncated("uint32")
	}
	return v, nil
}

// String reads a length-prefixed byte string. The result aliases the
// underlying buffer.
func (r *Reader) String() ([]byte, error) {
	var (
		n uint32
		v []byte
	)
	if !r.s.ReadUint32(&n) || !r.s.ReadBytes(&v, int(n)) {
		return nil, truncated("string")
	}
	return v, nil
}

// Name reads a length-prefixed string as text.
func (r *Reader) Name() (string, error) {
	v, err := r.String()
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// MPInt reads an RFC 4251 mpint. Negative values are rejected since no key
// parameter is negative.
func (r *Reader) MPInt() (*big.Int, error) {
	v, err := r.String()
	if err != nil {
		return nil, err
	}
	if len(v) > 0 && v[0]&0x80 != 0 {
		return nil, fmt.Errorf("%w: %w", keys.ErrMalformedInput, ErrNegativeMPInt)
	}
	return new(big.Int).SetBytes(v), nil
}

// Writer builds a buffer of length-prefixed fields.
type Writer struct {
	b *cryptobyte.Builder
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{b: cryptobyte.NewBuilder(nil)}
}

// Uint32 appends a big-endian uint32.
func (w *Writer) Uint32(v uint32) *Writer {
	w.b.AddUint32(v)
	return w
}

// String appends a length-prefixed byte string.
func (w *Writer) String(v []byte) *Writer {
	w.b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(v)
	})
	return w
}

// Name appends a length-prefixed text string.
func (w *Writer) Name(v string) *Writer {
	return w.String([]byte(v))
}

// MPInt appends v as an mpint: minimal big-endian magnitude, with a zero
// byte prepended when the high bit is set. Zero is the empty string.
func (w *Writer) MPInt(v *big.Int) *Writer {
	b := v.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	return w.String(b)
}

// Raw appends bytes without a length prefix.
func (w *Writer) Raw(v []byte) *Writer {
	w.b.AddBytes(v)
	return w
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.b.BytesOrPanic()
}
