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

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info", "text")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("converted", "from", "pem", "to", "jwk")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=converted")
	assert.Contains(t, out, "from=pem")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	require.NoError(t, err)

	l.With("component", "test").Debugf("detected %s", "ssh2")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "detected ssh2", record["msg"])
	assert.Equal(t, "test", record["component"])
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "info", "xml")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = New(&bytes.Buffer{}, "loud", "text")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "error", "text")
	require.NoError(t, err)

	l.Warn("dropped")
	l.MaybeError(nil)
	l.Error(errors.New("boom"), "format", "pem")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=boom")
	assert.Contains(t, out, "format=pem")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	l.Errorf("nothing %d", 1)
}
