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

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/assetgen/pkg/version"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const setupManifest = `
output_dir = "out"

bundle "setup" {
  kind     = "page"
  source   = "web/setup.htm"
  output   = "setup_htm.h"
  symbol   = "_acsetup_min_htm"
  route    = "/setup"
  external = ["creds.js"]

  stylesheet {
    path = "web/style.css"
  }

  script {
    path             = "web/app.js"
    preserve_globals = true
  }
}

bundle "creds" {
  kind             = "script"
  source           = "web/creds.js"
  preserve_globals = true
  symbol           = "_accreds_js"
}

bundle "logo" {
  source    = "web/logo.svg"
  base      = 10
  qualifier = "ICACHE_RODATA_ATTR"
}
`

func TestLoad_ResolvesBundles(t *testing.T) {
	path := writeManifest(t, setupManifest)
	dir := filepath.Dir(path)

	m, err := LoadWithEnv(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, m.Path)
	assert.Equal(t, filepath.Join(dir, "out"), m.OutputDir)
	assert.Equal(t, filepath.Join(dir, DefaultWorkDir), m.WorkDir)
	assert.Equal(t, []string{"setup", "creds", "logo"}, m.Names())

	setup, ok := m.Bundle("setup")
	require.True(t, ok)
	want := &Bundle{
		Name:      "setup",
		Kind:      KindPage,
		Source:    filepath.Join(dir, "web/setup.htm"),
		Output:    filepath.Join(dir, "out", "setup_htm.h"),
		Symbol:    "_acsetup_min_htm",
		Route:     "/setup",
		External:  []string{"creds.js"},
		Gzip:      true,
		Minify:    true,
		Base:      16,
		Qualifier: "PROGMEM",
		Stylesheets: []Stylesheet{
			{Path: filepath.Join(dir, "web/style.css"), Href: "style.css"},
		},
		Scripts: []Script{
			{Path: filepath.Join(dir, "web/app.js"), Src: "app.js", PreserveGlobals: true},
		},
	}
	if diff := cmp.Diff(want, setup); diff != "" {
		t.Errorf("setup bundle mismatch (-want +got):\n%s", diff)
	}

	creds, _ := m.Bundle("creds")
	assert.Equal(t, filepath.Join(dir, "out", "creds_js.h"), creds.Output)
	assert.True(t, creds.PreserveGlobals)
	assert.True(t, creds.Minify)

	logo, _ := m.Bundle("logo")
	assert.Equal(t, KindRaw, logo.Kind)
	assert.Equal(t, "_aclogo_svg", logo.Symbol)
	assert.Equal(t, 10, logo.Base)
	assert.Equal(t, "ICACHE_RODATA_ATTR", logo.Qualifier)
	assert.False(t, logo.Minify, "raw bundles are never minified")
	assert.True(t, logo.Gzip)
}

func TestLoad_EnvExpressions(t *testing.T) {
	path := writeManifest(t, `
output_dir = env.ASSETS_DIR

bundle "edit" {
  source = "${env.PAGES}/edit.htm"
  gzip   = false
}
`)
	m, err := LoadWithEnv(path, []string{"ASSETS_DIR=/firmware/src/assets", "PAGES=pages"})
	require.NoError(t, err)

	edit, ok := m.Bundle("edit")
	require.True(t, ok)
	assert.Equal(t, "/firmware/src/assets", m.OutputDir)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "pages", "edit.htm"), edit.Source)
	assert.Equal(t, "/firmware/src/assets/edit_htm.h", edit.Output)
	assert.Equal(t, KindPage, edit.Kind)
	assert.False(t, edit.Gzip)
	assert.True(t, edit.Discover, "pages without stylesheet or script blocks discover their references")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "Syntax error",
			body:    `bundle "x" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "Missing source",
			body:    `bundle "x" { output = "x.h" }`,
			wantErr: "failed to decode",
		},
		{
			name:    "No bundles",
			body:    `output_dir = "out"`,
			wantErr: "no bundles defined",
		},
		{
			name:    "Invalid symbol",
			body:    "bundle \"x\" {\n source = \"a.svg\"\n symbol = \"logo.svg\"\n}",
			wantErr: "not a valid C identifier",
		},
		{
			name:    "Unknown kind",
			body:    "bundle \"x\" {\n source = \"a.svg\"\n kind = \"font\"\n}",
			wantErr: "kind must be one of",
		},
		{
			name:    "Unsupported base",
			body:    "bundle \"x\" {\n source = \"a.svg\"\n base = 12\n}",
			wantErr: "base must be one of",
		},
		{
			name:    "Route without slash",
			body:    "bundle \"x\" {\n source = \"a.svg\"\n route = \"logo\"\n}",
			wantErr: "route must start with",
		},
		{
			name:    "Blocks on non-page bundle",
			body:    "bundle \"x\" {\n source = \"a.js\"\n stylesheet { path = \"a.css\" }\n}",
			wantErr: "only allowed in page bundles",
		},
		{
			name:    "Duplicate symbol",
			body:    "bundle \"a\" {\n source = \"a.svg\"\n symbol = \"s\"\n}\nbundle \"b\" {\n source = \"b.svg\"\n symbol = \"s\"\n}",
			wantErr: `share symbol "s"`,
		},
		{
			name:    "Duplicate output",
			body:    "bundle \"a\" {\n source = \"x/logo.svg\"\n}\nbundle \"b\" {\n source = \"y/logo.svg\"\n symbol = \"other\"\n}",
			wantErr: "share output",
		},
		{
			name:    "Invalid required version",
			body:    "required_version = \"latest\"\nbundle \"a\" {\n source = \"a.svg\"\n}",
			wantErr: "invalid required_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithEnv(writeManifest(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RequiredVersion(t *testing.T) {
	orig := version.Version
	defer func() { version.Version = orig }()

	body := "required_version = \"v1.2.0\"\nbundle \"a\" {\n source = \"a.svg\"\n}"

	version.Version = "v1.1.9"
	_, err := LoadWithEnv(writeManifest(t, body), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires assetgen v1.2.0")

	version.Version = "v1.2.0"
	_, err = LoadWithEnv(writeManifest(t, body), nil)
	assert.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.hcl"), nil)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	m := Default("/fw/built-in-webpages/setup/build_setup")
	require.NoError(t, m.Validate())

	assert.Equal(t, []string{"setup", "creds", "logo", "edit"}, m.Names())
	assert.Equal(t, "/fw/src/assets", m.OutputDir)

	symbols := map[string]string{}
	routes := map[string]string{}
	for _, b := range m.Bundles {
		symbols[b.Name] = b.Symbol
		routes[b.Name] = b.Route
		assert.True(t, b.Gzip, b.Name)
		assert.True(t, strings.HasPrefix(b.Output, "/fw/src/assets/"), b.Output)
	}
	assert.Equal(t, map[string]string{
		"setup": "_acsetup_min_htm",
		"creds": "_accreds_js",
		"logo":  "_aclogo_svg",
		"edit":  "_acedit_htm",
	}, symbols)
	assert.Equal(t, "/config/logo.svg", routes["logo"])

	setup, _ := m.Bundle("setup")
	require.Len(t, setup.Scripts, 1)
	assert.True(t, setup.Scripts[0].PreserveGlobals)
	assert.Equal(t, "/fw/built-in-webpages/setup/app.js", setup.Scripts[0].Path)
	assert.Equal(t, "/fw/built-in-webpages/edit/edit.htm", m.Bundles[3].Source)
}

func TestSelect(t *testing.T) {
	m := Default("/fw/build")

	all, err := m.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	sel, err := m.Select([]string{"logo", "setup"})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "setup", sel[0].Name, "selection keeps manifest order")
	assert.Equal(t, "logo", sel[1].Name)

	_, err = m.Select([]string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bundle")
}

func TestSetOutputDir(t *testing.T) {
	m := Default("/fw/build")
	m.Bundles[0].Output = "/elsewhere/custom.h"
	m.SetOutputDir("/tmp/out")

	assert.Equal(t, "/tmp/out", m.OutputDir)
	assert.Equal(t, "/elsewhere/custom.h", m.Bundles[0].Output)
	assert.Equal(t, "/tmp/out/creds_js.h", m.Bundles[1].Output)
}

func TestDefaultSymbolAndOutput(t *testing.T) {
	tests := []struct {
		source, symbol, output string
	}{
		{"../setup.htm", "_acsetup_htm", "setup_htm.h"},
		{"img/Logo-Dark.png", "_aclogo_dark_png", "Logo_Dark_png.h"},
		{"creds.js", "_accreds_js", "creds_js.h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.symbol, DefaultSymbol(tt.source))
		assert.Equal(t, tt.output, DefaultOutput(tt.source))
	}
}
