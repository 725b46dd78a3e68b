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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyformat/pkg/keyformat"
)

func newInspectCmd(cfg *Config) *cobra.Command {
	var from, in string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a key",
		Long: `Inspect decodes a key and prints its type, algorithm, size, attributes,
OpenSSH fingerprint and JWK thumbprint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := cfg.sourceFormat(from)
			if err != nil {
				return err
			}
			data, err := cfg.readInput(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}
			conv, err := cfg.converter()
			if err != nil {
				return err
			}
			key, err := conv.Decode(src, data)
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintKeyInfo(keyformat.Describe(key))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source format (auto, jwk, pem, openssh, ssh2)")
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input file")
	return cmd
}
