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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jeremyhahn/go-keyformat/pkg/curve"
	"github.com/jeremyhahn/go-keyformat/pkg/keyformat"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintKeyInfo prints a key description
func (p *Printer) PrintKeyInfo(info keyformat.Info) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Key Information:\n")
		fmt.Fprintf(p.writer, "  Type:        %s\n", info.Type)
		fmt.Fprintf(p.writer, "  Algorithm:   %s\n", info.Algorithm)
		fmt.Fprintf(p.writer, "  Format:      %s\n", info.Format)
		fmt.Fprintf(p.writer, "  Size:        %d bits\n", info.Bits)
		if info.Curve != "" {
			fmt.Fprintf(p.writer, "  Curve:       %s\n", info.Curve)
		}
		if info.MAC != "" {
			fmt.Fprintf(p.writer, "  MAC:         %s\n", info.MAC)
		}
		if info.Fingerprint != "" {
			fmt.Fprintf(p.writer, "  Fingerprint: %s\n", info.Fingerprint)
		}
		if info.Thumbprint != "" {
			fmt.Fprintf(p.writer, "  Thumbprint:  %s\n", info.Thumbprint)
		}
		if len(info.Attributes) > 0 {
			fmt.Fprintln(p.writer, "  Attributes:")
			names := make([]string, 0, len(info.Attributes))
			for name := range info.Attributes {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(p.writer, "    %s: %s\n", name, info.Attributes[name])
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCurves prints the curve registry
func (p *Printer) PrintCurves(curves []*curve.Curve) error {
	switch p.format {
	case OutputFormatJSON:
		list := make([]map[string]interface{}, len(curves))
		for i, c := range curves {
			list[i] = map[string]interface{}{
				"name":    c.Name,
				"aliases": c.Aliases,
				"oid":     c.OID.String(),
				"bits":    c.BitSize(),
			}
			if c.SSHName != "" {
				list[i]["ssh_name"] = c.SSHName
			}
		}
		return p.printJSON(map[string]interface{}{
			"curves": list,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%-10s %-5s %-22s %-10s %s\n", "NAME", "BITS", "OID", "SSH", "ALIASES")
		fmt.Fprintln(p.writer, strings.Repeat("-", 72))
		for _, c := range curves {
			ssh := c.SSHName
			if ssh == "" {
				ssh = "-"
			}
			fmt.Fprintf(p.writer, "%-10s %-5d %-22s %-10s %s\n",
				c.Name, c.BitSize(), c.OID.String(), ssh, strings.Join(c.Aliases, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVersion prints version information
func (p *Printer) PrintVersion(v VersionInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(v)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "keyformat version %s\n", v.Version)
		fmt.Fprintf(p.writer, "Git commit: %s\n", v.Commit)
		fmt.Fprintf(p.writer, "Build date: %s\n", v.BuildDate)
		fmt.Fprintf(p.writer, "Go version: %s\n", v.GoVersion)
		fmt.Fprintf(p.writer, "OS/Arch: %s/%s\n", v.OS, v.Arch)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":     "error",
			"error":      err.Error(),
			"error_type": keyformat.ErrorType(err),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
