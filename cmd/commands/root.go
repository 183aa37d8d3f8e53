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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/assetgen/internal/config"
	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/internal/writer"
)

var (
	// Global persistent flags (shared by subcommands)
	logLevel     string
	logFile      string
	manifestPath string
	outputDir    string

	// Overwrite flags, registered on commands that write files
	overwriteMode string
	acceptAnswers string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assetgen",
	Short: "assetgen - Embed web assets into firmware as C byte arrays",
	Long: `assetgen turns the web pages served by an embedded device into C headers.
Stylesheets and scripts are minified and inlined into their page, the result
is gzip-compressed and written as a byte array the firmware serves from flash
with Content-Encoding: gzip.

Use 'assetgen build' to regenerate every header of the manifest.`,
	SilenceUsage: true,
	// No RunE field, so it prints help by default
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (empty = stdout)")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "",
		"Manifest file (default: ./"+config.DefaultManifestFile+" or the built-in firmware manifest)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "",
		"Directory for generated headers (overrides the manifest)")
}

// addOverwriteFlags registers the flags controlling the overwrite prompt.
func addOverwriteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&overwriteMode, "overwrite", config.DefaultOverwrite,
		"Existing files: auto (prompt on a terminal, else keep), prompt, always, never")
	cmd.Flags().StringVar(&acceptAnswers, "accept", "",
		"Comma-separated extra answers accepted as yes (e.g. \"s,si\")")
}

// loadConfig builds the configuration: defaults, then ASSETGEN_* environment
// variables, then flags explicitly set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		c.LogFile = logFile
	}
	if flags.Changed("manifest") {
		c.ManifestPath = manifestPath
	}
	if flags.Changed("output-dir") {
		c.OutputDir = outputDir
	}
	if flags.Changed("overwrite") {
		c.Overwrite = overwriteMode
	}
	if flags.Changed("accept") {
		c.Accept = config.ParseCommaSeparated(acceptAnswers)
	}
	return c, nil
}

// loadManifest loads the configured manifest, ./assetgen.hcl when present, or
// the built-in manifest relative to the working directory.
func loadManifest(c *config.Config, logger *slog.Logger) (*manifest.Manifest, error) {
	var (
		m   *manifest.Manifest
		err error
	)

	switch {
	case c.ManifestPath != "":
		m, err = manifest.Load(c.ManifestPath)
	case fileExists(config.DefaultManifestFile):
		m, err = manifest.Load(config.DefaultManifestFile)
	default:
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		logger.Info("No manifest found, using the built-in firmware manifest", "dir", wd)
		m = manifest.Default(wd)
	}
	if err != nil {
		return nil, err
	}

	if c.OutputDir != "" {
		dir, err := filepath.Abs(c.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory: %w", err)
		}
		m.SetOutputDir(dir)
	}
	if c.WorkDir != "" {
		dir, err := filepath.Abs(c.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve work directory: %w", err)
		}
		m.WorkDir = dir
	}

	logger.Debug("Manifest loaded", "path", m.Path, "bundles", len(m.Bundles), "output_dir", m.OutputDir)
	return m, nil
}

// newFileWriter creates the safe writer for c. Prompts are read from stdin
// and written to stderr so stdout stays clean for logs and tables.
func newFileWriter(c *config.Config, logger *slog.Logger) (*writer.Writer, error) {
	policy, err := writer.PolicyFor(c.Overwrite, os.Stdin, os.Stderr, isInteractive(os.Stdin), c.Accept)
	if err != nil {
		return nil, err
	}
	return writer.New(policy, logger, writer.WithReserve(c.MinFree)), nil
}

// isInteractive reports whether f is a terminal.
func isInteractive(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// InitLogger initializes and returns a slog.Logger based on the provided settings.
// It is shared by all commands to ensure consistent logging format.
func InitLogger(levelStr, fileStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
