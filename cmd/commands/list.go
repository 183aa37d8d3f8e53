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

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bundles of the manifest",
	Long: `List every bundle of the manifest with its kind, symbol, sources and
whether its header has been generated.

Examples:
  # List bundles of ./assetgen.hcl (or the built-in manifest)
  assetgen list

  # Use the names to build a subset
  assetgen build --only setup,creds`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := InitLogger(c.LogLevel, c.LogFile)

	m, err := loadManifest(c, logger)
	if err != nil {
		return err
	}

	statuses := bundleStatuses(m)

	source := m.Path
	if source == "" {
		source = "built-in"
	}
	fmt.Printf("\nManifest:   %s\n", source)
	fmt.Printf("Output dir: %s\n", m.OutputDir)
	fmt.Print(report.FormatBundlesTable(statuses))
	fmt.Println()

	return nil
}

// bundleStatuses reports, for every bundle, whether its header exists.
func bundleStatuses(m *manifest.Manifest) []report.BundleStatus {
	statuses := make([]report.BundleStatus, 0, len(m.Bundles))
	for _, b := range m.Bundles {
		s := report.BundleStatus{Bundle: b}
		if info, err := os.Stat(b.Output); err == nil && !info.IsDir() {
			s.OutputExists = true
			s.OutputSize = info.Size()
		}
		statuses = append(statuses, s)
	}
	return statuses
}
