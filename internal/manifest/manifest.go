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

// Package manifest describes the bundles a build produces.
//
// Bundles are declared in an HCL file (assetgen.hcl by convention). Relative
// paths are resolved against the directory containing the manifest, outputs
// against output_dir. Expressions can read environment variables through the
// env object, e.g. output_dir = "${env.ASSETS_DIR}".
package manifest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/phuonguno98/assetgen/pkg/carray"
)

// Kind is the type of a bundle.
type Kind string

// Bundle kinds.
const (
	// KindPage is an HTML document with stylesheets and scripts to inline.
	KindPage Kind = "page"
	// KindScript is a standalone JavaScript file served on its own.
	KindScript Kind = "script"
	// KindRaw is any file embedded as-is (images, fonts, prebuilt pages).
	KindRaw Kind = "raw"
)

// Defaults applied to manifest values.
const (
	DefaultFileName  = "assetgen.hcl"
	DefaultOutputDir = "."
	DefaultWorkDir   = "min"
	DefaultBase      = carray.Base16
)

// Manifest is a resolved set of bundle definitions.
type Manifest struct {
	Path            string // Manifest file, empty for the built-in default
	Dir             string // Base directory for relative paths
	RequiredVersion string
	OutputDir       string
	WorkDir         string
	Bundles         []*Bundle
}

// Bundle is one logical set of sources producing one header file.
type Bundle struct {
	Name            string   `validate:"required,bundle_name"`
	Kind            Kind     `validate:"required,oneof=page script raw"`
	Source          string   `validate:"required"`
	Output          string   `validate:"required"`
	Symbol          string   `validate:"required,c_ident"`
	Route           string   `validate:"omitempty,startswith=/"`
	External        []string `validate:"dive,required"`
	PreserveGlobals bool
	Gzip            bool
	Minify          bool
	Base            int          `validate:"oneof=2 8 10 16"`
	Qualifier       string       `validate:"omitempty,c_ident"`
	Stylesheets     []Stylesheet `validate:"dive"`
	Scripts         []Script     `validate:"dive"`
	// Discover inlines every local stylesheet and script the page references
	// when no stylesheet or script blocks are declared.
	Discover bool
}

// Stylesheet is a CSS file inlined into a page.
type Stylesheet struct {
	Path string `validate:"required"`
	Href string `validate:"required"`
}

// Script is a JavaScript file inlined into a page.
type Script struct {
	Path            string `validate:"required"`
	Src             string `validate:"required"`
	PreserveGlobals bool
}

// Bundle returns the bundle with the given name.
func (m *Manifest) Bundle(name string) (*Bundle, bool) {
	for _, b := range m.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Names returns bundle names in declaration order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Bundles))
	for _, b := range m.Bundles {
		names = append(names, b.Name)
	}
	return names
}

// Select returns the named bundles in manifest order. An empty selection
// returns every bundle.
func (m *Manifest) Select(names []string) ([]*Bundle, error) {
	if len(names) == 0 {
		return m.Bundles, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := m.Bundle(n); !ok {
			return nil, fmt.Errorf("unknown bundle %q (available: %s)", n, strings.Join(m.Names(), ", "))
		}
		want[n] = true
	}

	selected := make([]*Bundle, 0, len(want))
	for _, b := range m.Bundles {
		if want[b.Name] {
			selected = append(selected, b)
		}
	}
	return selected, nil
}

// SetOutputDir moves every relative bundle output under dir.
func (m *Manifest) SetOutputDir(dir string) {
	old := m.OutputDir
	m.OutputDir = dir
	for _, b := range m.Bundles {
		if rel, err := filepath.Rel(old, b.Output); err == nil && !strings.HasPrefix(rel, "..") {
			b.Output = filepath.Join(dir, rel)
		}
	}
}

var nonIdentRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// DefaultSymbol derives a C symbol from a source file name using the "_ac"
// prefix of the generated firmware assets: setup.htm becomes _acsetup_htm.
func DefaultSymbol(source string) string {
	return "_ac" + nonIdentRe.ReplaceAllString(strings.ToLower(filepath.Base(source)), "_")
}

// DefaultOutput derives a header file name from a source file name:
// logo.svg becomes logo_svg.h.
func DefaultOutput(source string) string {
	return nonIdentRe.ReplaceAllString(filepath.Base(source), "_") + ".h"
}

// InferKind chooses a bundle kind from the source extension.
func InferKind(source string) Kind {
	switch asset.KindOf(source) {
	case asset.KindHTML:
		return KindPage
	case asset.KindJS:
		return KindScript
	default:
		return KindRaw
	}
}

// Default returns the built-in manifest reproducing the firmware's stock
// assets: the WiFi setup page, the credentials script, the logo and the file
// editor page. Paths are relative to dir, laid out as in the firmware
// repository's build folder.
func Default(dir string) *Manifest {
	abs := func(p string) string { return filepath.Join(dir, p) }
	outputDir := abs("../../../src/assets")
	out := func(name string) string { return filepath.Join(outputDir, name) }

	return &Manifest{
		Dir:       dir,
		OutputDir: outputDir,
		WorkDir:   abs(DefaultWorkDir),
		Bundles: []*Bundle{
			{
				Name:      "setup",
				Kind:      KindPage,
				Source:    abs("../setup.htm"),
				Output:    out("setup_htm.h"),
				Symbol:    "_acsetup_min_htm",
				Route:     "/setup",
				External:  []string{"creds.js"},
				Gzip:      true,
				Minify:    true,
				Base:      DefaultBase,
				Qualifier: carray.DefaultQualifier,
				Stylesheets: []Stylesheet{
					{Path: abs("../style.css"), Href: "style.css"},
				},
				Scripts: []Script{
					{Path: abs("../app.js"), Src: "app.js", PreserveGlobals: true},
				},
			},
			{
				Name:            "creds",
				Kind:            KindScript,
				Source:          abs("../creds.js"),
				Output:          out("creds_js.h"),
				Symbol:          "_accreds_js",
				Route:           "/creds.js",
				PreserveGlobals: true,
				Gzip:            true,
				Minify:          true,
				Base:            DefaultBase,
				Qualifier:       carray.DefaultQualifier,
			},
			{
				Name:      "logo",
				Kind:      KindRaw,
				Source:    abs("../logo.svg"),
				Output:    out("logo_svg.h"),
				Symbol:    "_aclogo_svg",
				Route:     "/config/logo.svg",
				Gzip:      true,
				Base:      DefaultBase,
				Qualifier: carray.DefaultQualifier,
			},
			{
				Name:      "edit",
				Kind:      KindPage,
				Source:    abs("../../edit/edit.htm"),
				Output:    out("edit_htm.h"),
				Symbol:    "_acedit_htm",
				Route:     "/edit",
				Gzip:      true,
				Base:      DefaultBase,
				Qualifier: carray.DefaultQualifier,
			},
		},
	}
}
