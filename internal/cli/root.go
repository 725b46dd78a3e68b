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
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around cfg
func newRootCmd(cfg *Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyformat",
		Short: "go-keyformat CLI - Cryptographic key format converter",
		Long: `go-keyformat converts public, private and secret keys between
encodings. Input is read from stdin or --in, output is written to stdout
or --out.

Supported formats:
  - jwk:     JSON Web Key (RFC 7517) and JWK Sets
  - pem:     PKCS#1, PKCS#8, SEC 1, OpenSSL DSA and SubjectPublicKeyInfo
  - openssh: authorized_keys lines and openssh-key-v1 private keys
  - ssh2:    RFC 4716 public keys

Supported algorithms: RSA, DSA, EC (P-192 to P-521, secp256k1) and oct.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.load(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.flushMetrics()
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputFormat, "output", "o", string(OutputFormatText),
		"report format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&cfg.MetricsFile, "metrics-file", "",
		"write Prometheus metrics to this file after the command")

	rootCmd.AddCommand(newConvertCmd(cfg))
	rootCmd.AddCommand(newInspectCmd(cfg))
	rootCmd.AddCommand(newCurvesCmd(cfg))
	rootCmd.AddCommand(newVersionCmd(cfg))
	return rootCmd
}

// Execute runs the root command and prints any error to stderr
func Execute() error {
	cfg := NewConfig()
	if err := newRootCmd(cfg).Execute(); err != nil {
		printer := NewPrinter(cfg.OutputFormat, os.Stderr)
		_ = printer.PrintError(err) // Error printing to stderr is best-effort
		return err
	}
	return nil
}
