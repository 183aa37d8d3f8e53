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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phuonguno98/assetgen/internal/writer"
)

// Config represents application configuration.
type Config struct {
	ManifestPath string // HCL manifest path (empty = ./assetgen.hcl or the built-in default)
	OutputDir    string // Overrides the manifest output_dir (empty = keep)
	WorkDir      string // Intermediate artifacts directory (empty = manifest work_dir)
	NoWorkDir    bool   // Skip intermediate artifacts

	// Overwrite handling
	Overwrite string   // Overwrite mode: auto, prompt, always, never
	Accept    []string // Extra affirmative answers (e.g. s, si)

	// Build selection and output
	Only       []string // Bundles to build (empty = all)
	ReportPath string   // CSV report path (empty = none)
	MinFree    uint64   // Bytes to keep free on the output filesystem
	MinifyHTML bool     // Minify page documents after inlining

	// Preview
	Addr string // Preview server listen address

	// Logging
	LogLevel string // Log level: debug, info, warn, error
	LogFile  string // Log file path (empty = stdout)
}

// Default configuration values.
const (
	DefaultManifestFile = "assetgen.hcl"
	DefaultOverwrite    = writer.ModeAuto
	DefaultLogLevel     = "info"
	DefaultMinFree      = 1 * 1024 * 1024 // 1MB
	DefaultAddr         = "127.0.0.1:8080"

	// EnvPrefix prefixes every environment variable read by ApplyEnv.
	EnvPrefix = "ASSETGEN_"
)

// OverwriteModes lists the accepted values of Config.Overwrite.
var OverwriteModes = []string{writer.ModeAuto, writer.ModePrompt, writer.ModeAlways, writer.ModeNever}

// Default returns a configuration holding the built-in defaults.
func Default() *Config {
	return &Config{
		Overwrite: DefaultOverwrite,
		MinFree:   DefaultMinFree,
		Addr:      DefaultAddr,
		LogLevel:  DefaultLogLevel,
	}
}

// ApplyEnv overrides fields from ASSETGEN_* variables found by lookup
// (usually os.LookupEnv, after an optional .env file has been loaded).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = parseCommaSeparated(v)
		}
	}

	str("MANIFEST", &c.ManifestPath)
	str("OUTPUT_DIR", &c.OutputDir)
	str("WORK_DIR", &c.WorkDir)
	str("OVERWRITE", &c.Overwrite)
	str("REPORT", &c.ReportPath)
	str("ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	list("ACCEPT", &c.Accept)
	list("ONLY", &c.Only)

	if v, ok := lookup(EnvPrefix + "MIN_FREE"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMIN_FREE %q: %w", EnvPrefix, v, err)
		}
		c.MinFree = n
	}
	if v, ok := lookup(EnvPrefix + "MINIFY_HTML"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sMINIFY_HTML %q: %w", EnvPrefix, v, err)
		}
		c.MinifyHTML = b
	}
	return nil
}

// FromEnv returns the defaults overridden by the process environment.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ParseCommaSeparated is the exported version of parseCommaSeparated.
func ParseCommaSeparated(s string) []string {
	return parseCommaSeparated(s)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validMode := false
	for _, m := range OverwriteModes {
		if c.Overwrite == m {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid overwrite mode: %s (must be %s)", c.Overwrite, strings.Join(OverwriteModes, ", "))
	}

	for _, a := range c.Accept {
		if strings.ContainsAny(a, " \t") {
			return fmt.Errorf("invalid affirmative answer %q: must be a single word", a)
		}
	}

	if c.Addr == "" {
		return errors.New("listen address cannot be empty")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	// Check if report directory exists
	if c.ReportPath != "" {
		if err := ensureParentDir(c.ReportPath); err != nil {
			return fmt.Errorf("report directory check failed: %w", err)
		}
	}

	return nil
}

// ensureParentDir checks that the directory holding path exists.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("parent is not a directory: %s", dir)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Manifest=%s, OutputDir=%s, WorkDir=%s, Overwrite=%s, Only=%v, Report=%s, MinifyHTML=%v}",
		c.ManifestPath, c.OutputDir, c.WorkDir, c.Overwrite, c.Only, c.ReportPath, c.MinifyHTML)
}
