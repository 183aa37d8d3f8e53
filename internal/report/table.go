/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package report renders build results as console tables and CSV files.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/internal/pipeline"
	"github.com/phuonguno98/assetgen/internal/storage"
)

const tableWidth = 80

// FormatResultsTable formats build results as a size table:
// source size, minified size and embedded size per bundle.
func FormatResultsTable(results []*pipeline.Result) string {
	var sb strings.Builder

	sb.WriteString("\nBuild Results:\n")
	sb.WriteString(strings.Repeat("=", tableWidth))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-12s %-9s %-14s %10s %10s %10s %s\n",
		"BUNDLE", "OUTCOME", "OUTPUT", "SOURCE", "MINIFIED", "EMBEDDED", "RATIO"))
	sb.WriteString(strings.Repeat("-", tableWidth))
	sb.WriteString("\n")

	var failed []*pipeline.Result
	for _, r := range results {
		ratio := naString
		if r.Outcome != pipeline.OutcomeFailed && r.SourceSize > 0 {
			ratio = fmt.Sprintf("%.1f%%", float64(r.CompressedSize)/float64(r.SourceSize)*100)
		}
		sb.WriteString(fmt.Sprintf("%-12s %-9s %-14s %10s %10s %10s %s\n",
			truncate(r.Bundle, 12),
			r.Outcome,
			truncate(filepath.Base(r.Output), 14),
			storage.FormatBytes(uint64(r.SourceSize)),
			storage.FormatBytes(uint64(r.MinifiedSize)),
			storage.FormatBytes(uint64(r.CompressedSize)),
			ratio,
		))
		if r.Err != nil {
			failed = append(failed, r)
		}
	}

	sb.WriteString(strings.Repeat("=", tableWidth))
	sb.WriteString("\n")

	for _, r := range failed {
		sb.WriteString(fmt.Sprintf("%s: %v\n", r.Bundle, r.Err))
	}

	return sb.String()
}

// BundleStatus is a manifest bundle together with the state of its output.
type BundleStatus struct {
	Bundle       *manifest.Bundle
	OutputExists bool
	OutputSize   int64
}

// FormatBundlesTable formats manifest bundles for the list command.
func FormatBundlesTable(bundles []BundleStatus) string {
	var sb strings.Builder

	sb.WriteString("\nManifest Bundles:\n")
	sb.WriteString(strings.Repeat("=", tableWidth))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-12s %-7s %-18s %-20s %s\n", "BUNDLE", "KIND", "SYMBOL", "OUTPUT", "STATUS"))
	sb.WriteString(strings.Repeat("-", tableWidth))
	sb.WriteString("\n")

	for _, s := range bundles {
		b := s.Bundle
		status := "missing"
		if s.OutputExists {
			status = storage.FormatBytes(uint64(s.OutputSize))
		}
		sb.WriteString(fmt.Sprintf("%-12s %-7s %-18s %-20s %s\n",
			truncate(b.Name, 12),
			b.Kind,
			truncate(b.Symbol, 18),
			truncate(filepath.Base(b.Output), 20),
			status,
		))

		// Sources on separate lines
		sb.WriteString(fmt.Sprintf("%-12s source: %s\n", "", b.Source))
		for _, css := range b.Stylesheets {
			sb.WriteString(fmt.Sprintf("%-12s style:  %s\n", "", css.Path))
		}
		for _, js := range b.Scripts {
			line := js.Path
			if js.PreserveGlobals {
				line += " (globals kept)"
			}
			sb.WriteString(fmt.Sprintf("%-12s script: %s\n", "", line))
		}
		if b.Route != "" {
			sb.WriteString(fmt.Sprintf("%-12s route:  %s\n", "", b.Route))
		}
	}

	sb.WriteString(strings.Repeat("=", tableWidth))
	sb.WriteString("\n")

	return sb.String()
}

// truncate truncates a string to a maximum length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
