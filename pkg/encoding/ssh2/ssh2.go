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

// Package ssh2 implements the RFC 4716 SSH2 public key file format:
//
//	---- BEGIN SSH2 PUBLIC KEY ----
//	Comment: "2048-bit RSA, converted by alice@example.com"
//	x-tag: value
//	AAAAB3NzaC1yc2EAAAADAQABAAABAQ...
//	---- END SSH2 PUBLIC KEY ----
//
// Header lines become key attributes. The format carries public keys only;
// private keys are encoded as their paired public key.
package ssh2

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/jeremyhahn/go-keyformat/internal/sshwire"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

const (
	beginMarker       = "---- BEGIN SSH2 PUBLIC KEY ----"
	endMarker         = "---- END SSH2 PUBLIC KEY ----"
	encryptedMarker   = "---- BEGIN SSH2 ENCRYPTED PRIVATE KEY ----"
	markerPrefix      = "---- BEGIN SSH2 "
	maxLineLength     = 72
	bodyLineLength    = 70
	maxHeaderTagBytes = 64
)

// IsSSH2 reports whether data contains an SSH2 key envelope.
func IsSSH2(data []byte) bool {
	return bytes.Contains(data, []byte(markerPrefix))
}

// Decode parses the first SSH2 public key in data.
func Decode(data []byte) (*keys.Key, error) {
	if bytes.Contains(data, []byte(encryptedMarker)) {
		return nil, fmt.Errorf("%w: SSH2 private keys are not supported", keys.ErrUnsupportedKeyFormat)
	}

	lines, err := envelope(data)
	if err != nil {
		return nil, err
	}
	attrs, body, err := splitHeaders(lines)
	if err != nil {
		return nil, err
	}

	var encoded strings.Builder
	for _, line := range body {
		encoded.WriteString(strings.TrimSpace(line))
	}
	blob, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		return nil, fmt.Errorf("%w: SSH2 body base64: %w", keys.ErrMalformedInput, err)
	}
	m, err := sshwire.ParsePublicKey(blob)
	if err != nil {
		return nil, err
	}
	return keys.New(m, keys.FormatSSH2, attrs), nil
}

// envelope returns the non-blank lines between the BEGIN and END markers.
func envelope(data []byte) ([]string, error) {
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 4096), len(data)+1)

	var (
		lines []string
		open  bool
	)
	for s.Scan() {
		// Leading space is kept: it may belong to a continued header value.
		raw := strings.TrimRight(s.Text(), " \t\r")
		line := strings.TrimSpace(raw)
		switch {
		case !open && line == beginMarker:
			open = true
		case open && line == endMarker:
			return lines, nil
		case open && line != "":
			lines = append(lines, raw)
		}
	}
	if !open {
		return nil, fmt.Errorf("%w: no SSH2 public key envelope found", keys.ErrMalformedInput)
	}
	return nil, fmt.Errorf("%w: missing %q", keys.ErrMalformedInput, endMarker)
}

// splitHeaders separates "Tag: value" header lines, joining backslash
// continuations, from the base64 body that follows them.
func splitHeaders(lines []string) (map[string]string, []string, error) {
	attrs := make(map[string]string)
	i := 0
	for i < len(lines) && strings.Contains(lines[i], ":") {
		logical := lines[i]
		for strings.HasSuffix(logical, `\`) {
			i++
			if i >= len(lines) {
				return nil, nil, fmt.Errorf("%w: unterminated header continuation", keys.ErrMalformedInput)
			}
			logical = strings.TrimSuffix(logical, `\`) + lines[i]
		}
		i++

		tag, value, _ := strings.Cut(logical, ":")
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > maxHeaderTagBytes {
			return nil, nil, fmt.Errorf("%w: invalid header tag %q", keys.ErrMalformedInput, tag)
		}
		if strings.EqualFold(tag, keys.AttributeComment) {
			tag = keys.AttributeComment
		}
		attrs[tag] = unquote(strings.TrimSpace(value))
	}
	return attrs, lines[i:], nil
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// Encode writes the public half of key as an SSH2 public key file.
// Attributes are written as headers, Comment first and quoted, the rest in
// sorted order. Attributes that cannot be written as a header are dropped.
func Encode(key *keys.Key) ([]byte, error) {
	pub := key.PublicKey()
	switch {
	case key.Type() == keys.Secret:
		return nil, fmt.Errorf("%w: secret keys have no SSH2 form", keys.ErrUnsupportedAlgorithm)
	case pub == nil:
		return nil, fmt.Errorf("%w: SSH2 carries public keys only and no public key is available", keys.ErrUnsupportedKeyFormat)
	}

	blob, err := sshwire.MarshalPublicKey(pub.Material())
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(beginMarker)
	b.WriteByte('\n')

	attrs := key.Attributes()
	if comment, ok := attrs[keys.AttributeComment]; ok {
		writeHeader(&b, keys.AttributeComment, `"`+comment+`"`)
		delete(attrs, keys.AttributeComment)
	}
	tags := make([]string, 0, len(attrs))
	for tag, value := range attrs {
		if validTag(tag) && validValue(value) {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	for _, tag := range tags {
		writeHeader(&b, tag, attrs[tag])
	}

	body := base64.StdEncoding.EncodeToString(blob)
	for len(body) > bodyLineLength {
		b.WriteString(body[:bodyLineLength])
		b.WriteByte('\n')
		body = body[bodyLineLength:]
	}
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString(endMarker)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func validTag(tag string) bool {
	if tag == "" || len(tag) > maxHeaderTagBytes {
		return false
	}
	for i := 0; i < len(tag); i++ {
		if c := tag[i]; c <= ' ' || c > '~' || c == ':' {
			return false
		}
	}
	return true
}

// validValue rejects unquoted values ending in a backslash, which a reader
// takes for a continuation marker.
func validValue(value string) bool {
	return !strings.HasSuffix(strings.TrimRight(value, " \t\r\n"), `\`)
}

// writeHeader writes "tag: value", splitting it into lines of at most
// maxLineLength bytes ending in a backslash continuation.
func writeHeader(b *strings.Builder, tag, value string) {
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	line := tag + ": " + value
	for len(line) > maxLineLength {
		b.WriteString(line[:maxLineLength-1])
		b.WriteString("\\\n")
		line = line[maxLineLength-1:]
	}
	b.WriteString(line)
	b.WriteByte('\n')
}
