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

// Package der implements a small ASN.1 DER tag-length-value codec.
//
// Decoding never copies: a Parser walks a caller-owned byte slice with a
// cursor, and every Object it returns is an offset/length span into that
// same slice. Constructed objects (SEQUENCE, SET, explicit context tags)
// hand out a nested Parser scoped to their content, so structures are
// decoded by recursive descent with fixed field order:
//
//	p := der.NewParser(data)
//	seq, err := p.Read()
//	inner, err := seq.Parser()
//	version, err := inner.Read()
//	n, err := inner.ReadInteger()
//
// Tags are not validated beyond what callers ask for; unknown tags are
// returned opaquely. Encoding helpers produce minimal DER headers.
package der

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrMalformed is returned when a tag or length header is truncated or
	// a declared length exceeds the remaining input.
	ErrMalformed = errors.New("der: malformed encoding")

	// ErrTypeMismatch is returned when an object is read as a type its tag
	// does not carry.
	ErrTypeMismatch = errors.New("der: type mismatch")

	// ErrTruncatedSequence is returned when reading past the end of a
	// constructed object's content.
	ErrTruncatedSequence = errors.New("der: read past end of sequence")
)

// Universal tags (identifier octets as they appear on the wire).
const (
	TagBoolean     byte = 0x01
	TagInteger     byte = 0x02
	TagBitString   byte = 0x03
	TagOctetString byte = 0x04
	TagNull        byte = 0x05
	TagOID         byte = 0x06
	TagUTF8String  byte = 0x0c
	TagSequence    byte = 0x30
	TagSet         byte = 0x31
)

const (
	classContext    byte = 0x80
	flagConstructed byte = 0x20
	highTagNumber   byte = 0x1f

	// Lengths above 2^31 cannot be backed by a slice on any supported
	// platform, so longer length-of-length fields are rejected outright.
	maxLengthBytes = 4
)

// ContextTag returns the identifier octet of an explicit ([n] constructed)
// context-specific tag.
func ContextTag(n int) byte {
	return classContext | flagConstructed | byte(n)
}

// Object is one decoded TLV node. Its content is a span of the parser's
// underlying buffer.
type Object struct {
	// Tag is the first identifier octet.
	Tag byte

	// Length is the declared content length.
	Length int

	buf    []byte
	header int // offset of the identifier octet
	start  int // offset of the first content byte
}

// Bytes returns the content octets.
func (o Object) Bytes() []byte {
	return o.buf[o.start : o.start+o.Length]
}

// Raw returns the complete encoding, header included.
func (o Object) Raw() []byte {
	return o.buf[o.header : o.start+o.Length]
}

// Constructed reports whether the object's content is itself a series of
// TLV nodes.
func (o Object) Constructed() bool {
	return o.Tag&flagConstructed != 0
}

// IsContext reports whether the object carries context-specific tag [n].
func (o Object) IsContext(n int) bool {
	return o.Tag&0xc0 == classContext && int(o.Tag&highTagNumber) == n
}

// Integer reinterprets the content as a two's-complement big-endian
// integer.
func (o Object) Integer() (*big.Int, error) {
	if o.Tag != TagInteger {
		return nil, fmt.Errorf("%w: expected INTEGER, found tag 0x%02x", ErrTypeMismatch, o.Tag)
	}
	content := o.Bytes()
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty INTEGER", ErrMalformed)
	}
	v := new(big.Int).SetBytes(content)
	if content[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(content))*8))
	}
	return v, nil
}

// Parser returns a parser scoped to the content of a constructed object.
func (o Object) Parser() (*Parser, error) {
	if !o.Constructed() {
		return nil, fmt.Errorf("%w: tag 0x%02x is not constructed", ErrTypeMismatch, o.Tag)
	}
	return &Parser{buf: o.buf, pos: o.start, end: o.start + o.Length, nested: true}, nil
}

// Parser reads consecutive TLV objects from a byte slice.
type Parser struct {
	buf    []byte
	pos    int
	end    int
	nested bool
}

// NewParser returns a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{buf: data, end: len(data)}
}

// Offset returns the cursor position within the underlying buffer.
func (p *Parser) Offset() int {
	return p.pos
}

// More reports whether unread input remains.
func (p *Parser) More() bool {
	return p.pos < p.end
}

// Read decodes the object at the cursor and advances past it.
func (p *Parser) Read() (Object, error) {
	if p.pos >= p.end {
		if p.nested {
			return Object{}, ErrTruncatedSequence
		}
		return Object{}, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}

	header := p.pos
	pos := p.pos
	tag := p.buf[pos]
	pos++

	// High tag numbers continue in base-128 octets; the number itself is
	// not needed, only its extent.
	if tag&highTagNumber == highTagNumber {
		for {
			if pos >= p.end {
				return Object{}, fmt.Errorf("%w: truncated tag", ErrMalformed)
			}
			b := p.buf[pos]
			pos++
			if b&0x80 == 0 {
				break
			}
		}
	}

	if pos >= p.end {
		return Object{}, fmt.Errorf("%w: missing length", ErrMalformed)
	}
	first := p.buf[pos]
	pos++

	var length int
	switch {
	case first < 0x80:
		length = int(first)
	case first == 0x80:
		return Object{}, fmt.Errorf("%w: indefinite length", ErrMalformed)
	default:
		n := int(first & 0x7f)
		if n > maxLengthBytes {
			return Object{}, fmt.Errorf("%w: length of length %d too large", ErrMalformed, n)
		}
		if p.end-pos < n {
			return Object{}, fmt.Errorf("%w: truncated length", ErrMalformed)
		}
		for i := 0; i < n; i++ {
			length = length<<8 | int(p.buf[pos])
			pos++
		}
		if length < 0 {
			return Object{}, fmt.Errorf("%w: negative length", ErrMalformed)
		}
	}

	if length > p.end-pos {
		return Object{}, fmt.Errorf("%w: length %d exceeds %d remaining bytes", ErrMalformed, length, p.end-pos)
	}

	p.pos = pos + length
	return Object{Tag: tag, Length: length, buf: p.buf, header: header, start: pos}, nil
}

// ReadInteger reads the next object and returns it as an integer.
func (p *Parser) ReadInteger() (*big.Int, error) {
	o, err := p.Read()
	if err != nil {
		return nil, err
	}
	return o.Integer()
}

// ReadTag reads the next object and fails with ErrTypeMismatch unless it
// carries the expected tag.
func (p *Parser) ReadTag(tag byte) (Object, error) {
	o, err := p.Read()
	if err != nil {
		return Object{}, err
	}
	if o.Tag != tag {
		return Object{}, fmt.Errorf("%w: expected tag 0x%02x, found 0x%02x", ErrTypeMismatch, tag, o.Tag)
	}
	return o, nil
}

// ReadSequence reads the next object, which must be a SEQUENCE, and
// returns a parser over its content.
func (p *Parser) ReadSequence() (*Parser, error) {
	o, err := p.ReadTag(TagSequence)
	if err != nil {
		return nil, err
	}
	return o.Parser()
}
