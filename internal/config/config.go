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

package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-keyformat/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyformat/pkg/encoding/pem"
	"github.com/jeremyhahn/go-keyformat/pkg/keyformat"
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
	"github.com/jeremyhahn/go-keyformat/pkg/logging"
)

// Config represents the complete command-line tool configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Convert ConvertConfig `yaml:"convert"`
	PEM     PEMConfig     `yaml:"pem"`
	JWK     JWKConfig     `yaml:"jwk"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConvertConfig holds the default source and target key formats
type ConvertConfig struct {
	From string `yaml:"from"` // auto, jwk, pem, openssh, ssh2
	To   string `yaml:"to"`   // jwk, pem, openssh, ssh2
}

// PEMConfig selects the DER structures written for PEM output
type PEMConfig struct {
	Private       string `yaml:"private"` // traditional, pkcs8
	Public        string `yaml:"public"`  // spki, pkcs1
	ExplicitCurve bool   `yaml:"explicit_curve"`
	Headers       bool   `yaml:"headers"`
}

// JWKConfig controls JWK output
type JWKConfig struct {
	Indent string `yaml:"indent"`
}

// MetricsConfig controls metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Textfile, when set, receives the metrics in the Prometheus text
	// format after each command.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "warn", Format: logging.FormatText},
		Convert: ConvertConfig{From: "auto", To: "pem"},
		PEM:     PEMConfig{Private: "traditional", Public: "spki"},
	}
}

// Load reads configuration from a YAML file over the defaults and applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies KEYFORMAT_* environment variable overrides
func applyEnvOverrides(cfg *Config) {
	// Logging
	if level := os.Getenv("KEYFORMAT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("KEYFORMAT_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// Conversion defaults
	if from := os.Getenv("KEYFORMAT_FROM"); from != "" {
		cfg.Convert.From = from
	}
	if to := os.Getenv("KEYFORMAT_TO"); to != "" {
		cfg.Convert.To = to
	}

	// PEM
	if private := os.Getenv("KEYFORMAT_PEM_PRIVATE"); private != "" {
		cfg.PEM.Private = private
	}
	if public := os.Getenv("KEYFORMAT_PEM_PUBLIC"); public != "" {
		cfg.PEM.Public = public
	}
	envBool("KEYFORMAT_PEM_EXPLICIT_CURVE", &cfg.PEM.ExplicitCurve)
	envBool("KEYFORMAT_PEM_HEADERS", &cfg.PEM.Headers)

	// JWK
	if indent, ok := os.LookupEnv("KEYFORMAT_JWK_INDENT"); ok {
		cfg.JWK.Indent = indent
	}

	// Metrics
	envBool("KEYFORMAT_METRICS_ENABLED", &cfg.Metrics.Enabled)
	if textfile := os.Getenv("KEYFORMAT_METRICS_TEXTFILE"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}
}

func envBool(name string, dst *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, using default %t: %v", name, value, *dst, err)
		return
	}
	*dst = b
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	validFormats := map[string]bool{
		logging.FormatText: true, logging.FormatJSON: true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if _, err := c.SourceFormat(); err != nil {
		return fmt.Errorf("invalid convert.from: %w", err)
	}
	if _, err := keyformat.ParseFormat(c.Convert.To); err != nil {
		return fmt.Errorf("invalid convert.to: %w", err)
	}

	if _, err := c.PEMEncoder(); err != nil {
		return err
	}
	if strings.Trim(c.JWK.Indent, " \t") != "" {
		return fmt.Errorf("invalid jwk.indent: %q (must be spaces or tabs)", c.JWK.Indent)
	}
	return nil
}

// SourceFormat returns the configured source format. "auto" and the empty
// string select detection and return keys.FormatNone.
func (c *Config) SourceFormat() (keyformat.Format, error) {
	if c.Convert.From == "" || strings.EqualFold(c.Convert.From, "auto") {
		return keys.FormatNone, nil
	}
	return keyformat.ParseFormat(c.Convert.From)
}

// PEMEncoder returns the PEM encoder described by the configuration
func (c *Config) PEMEncoder() (pem.Encoder, error) {
	enc := pem.Encoder{
		ExplicitCurve: c.PEM.ExplicitCurve,
		Headers:       c.PEM.Headers,
	}
	switch strings.ToLower(c.PEM.Private) {
	case "", "traditional":
		enc.Private = pem.Traditional
	case "pkcs8":
		enc.Private = pem.PKCS8
	default:
		return enc, fmt.Errorf("invalid pem.private: %s (must be traditional or pkcs8)", c.PEM.Private)
	}
	switch strings.ToLower(c.PEM.Public) {
	case "", "spki":
		enc.Public = pem.SPKI
	case "pkcs1":
		enc.Public = pem.PKCS1
	default:
		return enc, fmt.Errorf("invalid pem.public: %s (must be spki or pkcs1)", c.PEM.Public)
	}
	return enc, nil
}

// NewLogger creates the configured logger writing to w
func (c *Config) NewLogger(w io.Writer) (*logging.Logger, error) {
	return logging.New(w, c.Logging.Level, c.Logging.Format)
}

// NewConverter creates a converter with the configured codec options
func (c *Config) NewConverter(logger *logging.Logger) (*keyformat.Converter, error) {
	enc, err := c.PEMEncoder()
	if err != nil {
		return nil, err
	}
	return &keyformat.Converter{
		PEM:    enc,
		JWK:    jwk.Encoder{Indent: c.JWK.Indent},
		Logger: logger,
	}, nil
}
