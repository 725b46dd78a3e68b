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
	"github.com/jeremyhahn/go-keyformat/pkg/keys"
)

func newConvertCmd(cfg *Config) *cobra.Command {
	var (
		from, to, in, out string
		publicOnly        bool
		comment           string
		attrs             map[string]string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a key to another format",
		Long: `Convert reads a key, detecting its format unless --from is given, and
writes it in the --to format.`,
		Example: `  keyformat convert --to jwk < id_ecdsa.pub
  keyformat convert --from pem --to openssh --public --comment deploy@ci -i key.pem
  keyformat convert --to pem --attr kid=2025-01 -i key.jwk -O key.pem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := cfg.sourceFormat(from)
			if err != nil {
				return err
			}
			dst, err := cfg.targetFormat(to)
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

			var transforms []keyformat.Transform
			if publicOnly {
				transforms = append(transforms, keyformat.PublicOnly())
			}
			if comment != "" {
				if attrs == nil {
					attrs = make(map[string]string)
				}
				attrs[keys.AttributeComment] = comment
			}
			if len(attrs) > 0 {
				transforms = append(transforms, keyformat.SetAttributes(attrs))
			}

			encoded, key, err := conv.Convert(src, dst, data, transforms...)
			if err != nil {
				return err
			}
			cfg.logger.Info("converted key",
				"from", key.Format(), "to", dst, "algorithm", key.Algorithm(), "type", key.Type())
			return cfg.writeOutput(cmd.OutOrStdout(), out, encoded, key.Type() != keys.Public)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source format (auto, jwk, pem, openssh, ssh2)")
	cmd.Flags().StringVar(&to, "to", "", "target format (jwk, pem, openssh, ssh2)")
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input file")
	cmd.Flags().StringVarP(&out, "out", "O", "-", "output file")
	cmd.Flags().BoolVar(&publicOnly, "public", false, "write the public key only")
	cmd.Flags().StringVar(&comment, "comment", "", "set the key comment")
	cmd.Flags().StringToStringVar(&attrs, "attr", nil, "set a key attribute (name=value)")
	return cmd
}
