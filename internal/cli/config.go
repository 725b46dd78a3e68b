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

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jeremyhahn/go-keyformat/internal/config"
	"github.com/jeremyhahn/go-keyformat/pkg/keyformat"
	"github.com/jeremyhahn/go-keyformat/pkg/logging"
	"github.com/jeremyhahn/go-keyformat/pkg/metrics"
)

// maxInputSize bounds the key material read from a file or stdin.
const maxInputSize = 1 << 20

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls report formatting (text, json)
	OutputFormat string

	// Verbose forces debug logging
	Verbose bool

	// MetricsFile overrides the configured metrics textfile
	MetricsFile string

	// RunID tags every log record of one invocation
	RunID string

	fs       afero.Fs
	settings *config.Config
	logger   *logging.Logger
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
		RunID:        uuid.NewString(),
		fs:           afero.NewOsFs(),
	}
}

// load reads the configuration file and environment and prepares the
// logger and metrics state. Logs go to stderr.
func (c *Config) load(stderr io.Writer) error {
	settings, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}
	if c.Verbose {
		settings.Logging.Level = "debug"
	}
	if c.MetricsFile != "" {
		settings.Metrics.Enabled = true
		settings.Metrics.Textfile = c.MetricsFile
	}

	logger, err := settings.NewLogger(stderr)
	if err != nil {
		return err
	}
	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	c.settings = settings
	c.logger = logger.With("run_id", c.RunID)
	c.logger.Debug("configuration loaded", "file", c.ConfigFile, "metrics", settings.Metrics.Enabled)
	return nil
}

// converter returns a converter built from the loaded configuration
func (c *Config) converter() (*keyformat.Converter, error) {
	return c.settings.NewConverter(c.logger)
}

// sourceFormat resolves a --from flag value, falling back to the
// configured default. "auto" selects detection.
func (c *Config) sourceFormat(flag string) (keyformat.Format, error) {
	if flag == "" {
		return c.settings.SourceFormat()
	}
	s := *c.settings
	s.Convert.From = flag
	return s.SourceFormat()
}

// targetFormat resolves a --to flag value, falling back to the configured
// default.
func (c *Config) targetFormat(flag string) (keyformat.Format, error) {
	if flag == "" {
		flag = c.settings.Convert.To
	}
	return keyformat.ParseFormat(flag)
}

// flushMetrics writes the metrics textfile when one is configured
func (c *Config) flushMetrics() error {
	if c.settings == nil || !c.settings.Metrics.Enabled || c.settings.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(c.settings.Metrics.Textfile, nil); err != nil {
		return err
	}
	c.logger.Debug("metrics written", "file", c.settings.Metrics.Textfile)
	return nil
}

// readInput reads key material from path, or from stdin when path is
// empty or "-".
func (c *Config) readInput(stdin io.Reader, path string) ([]byte, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := c.fs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds %d bytes", maxInputSize)
	}
	return data, nil
}

// writeOutput writes data to path, or to stdout when path is empty or
// "-". Files holding private or secret keys are created owner-only.
func (c *Config) writeOutput(stdout io.Writer, path string, data []byte, sensitive bool) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	mode := os.FileMode(0o644)
	if sensitive {
		mode = 0o600
	}
	if err := afero.WriteFile(c.fs, path, data, mode); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
