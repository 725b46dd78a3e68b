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

package keyformat

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/openssh"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/pem"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/ssh2"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
	"github.com/jeremyhahn/go-keyformat/pkg/logging"
	"github.com/jeremyhahn/go-keyformat/pkg/metrics"
)

var defaultConverter = &Converter{}

// Converter decodes and encodes keys with configurable codec options. It
// records every operation in the metrics package and, when Logger is set,
// logs detection results and failures at debug level.
//
// A Converter is safe for concurrent use once configured.
type Converter struct {
	PEM     pem.Encoder
	JWK     jwk.Encoder
	OpenSSH openssh.Encoder

	// Logger receives debug records. Nil disables logging.
	Logger *logging.Logger
}

// Detect returns the format of data.
func (c *Converter) Detect(data []byte) (Format, error) {
	start := time.Now()
	format, err := Detect(data)
	c.record(metrics.OpDetect, formatLabel(format), start, err)
	if err == nil {
		c.debug("detected key format", "format", formatLabel(format), "bytes", len(data))
	}
	return format, err
}

// Decode parses data in the given format. keys.FormatNone detects the
// format first.
func (c *Converter) Decode(format Format, data []byte) (*keys.Key, error) {
	if format == keys.FormatNone {
		detected, err := c.Detect(data)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	label := formatLabel(format)
	metrics.ObserveInputSize(label, len(data))

	start := time.Now()
	key, err := Decode(format, data)
	c.record(metrics.OpDecode, label, start, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordKey(key.Algorithm().String(), key.Type().String())
	c.debug("decoded key", "format", label, "algorithm", key.Algorithm(), "type", key.Type())
	return key, nil
}

// Encode writes key in the given format.
func (c *Converter) Encode(format Format, key *keys.Key) ([]byte, error) {
	label := formatLabel(format)
	start := time.Now()
	out, err := c.encode(format, key)
	c.record(metrics.OpEncode, label, start, err)
	return out, err
}

func (c *Converter) encode(format Format, key *keys.Key) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil key", keys.ErrMissingField)
	}
	switch format {
	case JWK:
		return c.JWK.Encode(key)
	case PEM:
		return c.PEM.Encode(key)
	case OpenSSH:
		return c.OpenSSH.Encode(key)
	case SSH2:
		return ssh2.Encode(key)
	}
	return nil, fmt.Errorf("%w: %s", keys.ErrUnknownFormat, format)
}

// Transform rewrites a decoded key before it is encoded.
type Transform func(*keys.Key) (*keys.Key, error)

// PublicOnly replaces private keys with their paired public key. It fails
// for secret keys and for private keys whose public half is unknown.
func PublicOnly() Transform {
	return func(key *keys.Key) (*keys.Key, error) {
		if pub := key.PublicKey(); pub != nil {
			return pub, nil
		}
		return nil, fmt.Errorf("%w: %s %s key has no public key", keys.ErrUnsupportedKeyVariant, key.Algorithm(), key.Type())
	}
}

// SetAttributes merges attrs into the key attributes. Names that carry key
// parameters are ignored.
func SetAttributes(attrs map[string]string) Transform {
	return func(key *keys.Key) (*keys.Key, error) {
		merged := key.Attributes()
		maps.Copy(merged, attrs)
		return key.WithAttributes(merged), nil
	}
}

// Convert decodes data from one format, applies the transforms in order
// and encodes the result in another format. A from of keys.FormatNone
// detects the source format. The key that was encoded is returned with the
// output.
func (c *Converter) Convert(from, to Format, data []byte, transforms ...Transform) ([]byte, *keys.Key, error) {
	start := time.Now()
	fail := func(err error) error {
		metrics.RecordConversion(formatLabel(from), formatLabel(to), metrics.StatusError, time.Since(start).Seconds())
		return err
	}

	key, err := c.Decode(from, data)
	if err != nil {
		return nil, nil, fail(err)
	}
	from = key.Format()

	for _, transform := range transforms {
		if key, err = transform(key); err != nil {
			return nil, nil, fail(err)
		}
	}

	out, err := c.Encode(to, key)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.RecordConversion(formatLabel(from), formatLabel(to), status, time.Since(start).Seconds())
	if err != nil {
		return nil, key, err
	}
	return out, key, nil
}

func (c *Converter) record(op, format string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		kind := ErrorType(err)
		metrics.RecordError(op, format, kind)
		c.debug("key format operation failed", "operation", op, "format", format, "error_type", kind, "error", err)
	}
	metrics.RecordOperation(op, format, status, time.Since(start).Seconds())
}

func (c *Converter) debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func formatLabel(f Format) string {
	if f == keys.FormatNone {
		return "auto"
	}
	return strings.ToLower(f.String())
}

// errorTypes maps sentinels to metric labels. Combination errors are
// listed before ErrMissingField because they match both.
var errorTypes = []struct {
	err  error
	name string
}{
	{keys.ErrInvalidFieldCombination, "invalid_field_combination"},
	{keys.ErrMissingField, "missing_field"},
	{keys.ErrMalformedInput, "malformed_input"},
	{keys.ErrUnsupportedKty, "unsupported_kty"},
	{keys.ErrUnsupportedCurve, "unsupported_curve"},
	{keys.ErrUnsupportedAlgorithm, "unsupported_algorithm"},
	{keys.ErrUnsupportedKeyFormat, "unsupported_key_format"},
	{keys.ErrUnsupportedKeyVariant, "unsupported_key_variant"},
	{keys.ErrUnknownFormat, "unknown_format"},
	{keys.ErrEmptyKeySet, "empty_key_set"},
	{keys.ErrInvalidKey, "invalid_key"},
}

// ErrorType returns a short label for the kind of err, or "other" when it
// matches no keyformat error.
func ErrorType(err error) string {
	for _, t := range errorTypes {
		if errors.Is(err, t.err) {
			return t.name
		}
	}
	return "other"
}
