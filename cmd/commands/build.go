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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/assetgen/internal/config"
	"github.com/phuonguno98/assetgen/internal/pipeline"
	"github.com/phuonguno98/assetgen/internal/report"
	"github.com/phuonguno98/assetgen/pkg/version"
)

var (
	// Build command specific flags
	workDir    string
	noWorkDir  bool
	onlyList   string
	reportPath string
	minifyHTML bool
	minFree    uint64
)

var buildCmd = &cobra.Command{
	Use:   "build [bundle...]",
	Short: "Build firmware headers from web assets",
	Long: `Build every bundle of the manifest (or only the named ones) into a C header.

Each bundle is loaded, minified, inlined, gzip-compressed and encoded as a
byte array. Existing headers are only replaced after confirmation. A failed
bundle does not stop the others, but makes the command exit with an error.

Examples:
  # Build every bundle of ./assetgen.hcl (or the built-in manifest)
  assetgen build

  # Rebuild the setup page only, overwriting without asking (CI)
  assetgen build setup --overwrite always

  # Accept Italian answers at the prompt and keep a CSV report
  assetgen build --accept s,si --report build.csv`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	// Define flags specifically for build command
	buildCmd.Flags().StringVar(&workDir, "work-dir", "",
		"Directory for intermediate artifacts (default: manifest work_dir)")
	buildCmd.Flags().BoolVar(&noWorkDir, "no-work-dir", false,
		"Do not write intermediate artifacts")
	buildCmd.Flags().StringVar(&onlyList, "only", "",
		"Comma-separated list of bundles to build (empty = all)")
	buildCmd.Flags().StringVar(&reportPath, "report", "",
		"Append a CSV build report to this file")
	buildCmd.Flags().BoolVar(&minifyHTML, "minify-html", false,
		"Minify page documents after inlining")
	buildCmd.Flags().Uint64Var(&minFree, "min-free", config.DefaultMinFree,
		"Bytes that must stay free on the output filesystem")
	addOverwriteFlags(buildCmd)
}

// buildConfig creates a Config object from the environment and parsed flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	c, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("work-dir") {
		c.WorkDir = workDir
	}
	if flags.Changed("no-work-dir") {
		c.NoWorkDir = noWorkDir
	}
	if flags.Changed("only") {
		c.Only = config.ParseCommaSeparated(onlyList)
	}
	if flags.Changed("report") {
		c.ReportPath = reportPath
	}
	if flags.Changed("minify-html") {
		c.MinifyHTML = minifyHTML
	}
	if flags.Changed("min-free") {
		c.MinFree = minFree
	}
	c.Only = append(c.Only, args...)

	// Validate
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// runBuild is the build entry point.
func runBuild(cmd *cobra.Command, args []string) error {
	c, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Initialize logger
	logger := InitLogger(c.LogLevel, c.LogFile)

	logger.Info("Starting assetgen",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Debug("Configuration loaded", "config", c.String())

	m, err := loadManifest(c, logger)
	if err != nil {
		return err
	}
	bundles, err := m.Select(c.Only)
	if err != nil {
		return err
	}

	w, err := newFileWriter(c, logger)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithHTMLMinification(c.MinifyHTML)}
	if !c.NoWorkDir {
		opts = append(opts, pipeline.WithWorkDir(m.WorkDir))
	}
	builder := pipeline.NewBuilder(w, logger, opts...)

	// Interrupts stop the build between bundles
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, buildErr := builder.Run(ctx, bundles)

	fmt.Print(report.FormatResultsTable(results))

	if c.ReportPath != "" {
		if err := writeReport(c.ReportPath, builder.RunID(), results, logger); err != nil {
			logger.Error("Failed to write report", "path", c.ReportPath, "error", err)
		}
	}

	if buildErr != nil {
		return fmt.Errorf("build failed: %w", buildErr)
	}
	return nil
}

// writeReport appends the results of this run to the CSV report at path.
func writeReport(path, runID string, results []*pipeline.Result, logger *slog.Logger) error {
	r, err := report.NewCSVReport(path, runID, logger)
	if err != nil {
		return err
	}
	if err := r.Write(results); err != nil {
		_ = r.Close()
		return err
	}
	return r.Close()
}
