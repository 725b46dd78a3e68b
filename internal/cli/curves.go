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

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
)

func newCurvesCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List supported elliptic curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintCurves(curve.All())
		},
	}
}
