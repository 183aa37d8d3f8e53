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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/phuonguno98/assetgen/pkg/carray"
	"github.com/phuonguno98/assetgen/pkg/version"
)

// fileRoot mirrors the top level of an assetgen.hcl file.
type fileRoot struct {
	RequiredVersion string        `hcl:"required_version,optional"`
	OutputDir       string        `hcl:"output_dir,optional"`
	WorkDir         string        `hcl:"work_dir,optional"`
	Bundles         []*bundleBody `hcl:"bundle,block"`
}

type bundleBody struct {
	Name            string            `hcl:"name,label"`
	Kind            string            `hcl:"kind,optional"`
	Source          string            `hcl:"source"`
	Output          string            `hcl:"output,optional"`
	Symbol          string            `hcl:"symbol,optional"`
	Route           string            `hcl:"route,optional"`
	External        []string          `hcl:"external,optional"`
	PreserveGlobals bool              `hcl:"preserve_globals,optional"`
	Gzip            *bool             `hcl:"gzip,optional"`
	Minify          *bool             `hcl:"minify,optional"`
	Base            *int              `hcl:"base,optional"`
	Qualifier       *string           `hcl:"qualifier,optional"`
	Discover        *bool             `hcl:"discover,optional"`
	Stylesheets     []*stylesheetBody `hcl:"stylesheet,block"`
	Scripts         []*scriptBody     `hcl:"script,block"`
}

type stylesheetBody struct {
	Path string `hcl:"path"`
	Href string `hcl:"href,optional"`
}

type scriptBody struct {
	Path            string `hcl:"path"`
	Src             string `hcl:"src,optional"`
	PreserveGlobals bool   `hcl:"preserve_globals,optional"`
}

// Load parses the manifest at path. Environment variables are exposed to
// expressions as env.NAME.
func Load(path string) (*Manifest, error) {
	return LoadWithEnv(path, os.Environ())
}

// LoadWithEnv is Load with an explicit environment in KEY=VALUE form.
func LoadWithEnv(path string, environ []string) (*Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(absPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(environ), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	m, err := resolve(&root, filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Path = absPath

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func resolve(root *fileRoot, dir string) (*Manifest, error) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	m := &Manifest{
		Dir:             dir,
		RequiredVersion: root.RequiredVersion,
		OutputDir:       abs(orDefault(root.OutputDir, DefaultOutputDir)),
		WorkDir:         abs(orDefault(root.WorkDir, DefaultWorkDir)),
	}

	for _, body := range root.Bundles {
		b := &Bundle{
			Name:            body.Name,
			Kind:            Kind(body.Kind),
			Source:          abs(body.Source),
			Symbol:          body.Symbol,
			Route:           body.Route,
			External:        body.External,
			PreserveGlobals: body.PreserveGlobals,
			Gzip:            boolOr(body.Gzip, true),
			Base:            DefaultBase,
			Qualifier:       carray.DefaultQualifier,
		}
		if b.Kind == "" {
			b.Kind = InferKind(body.Source)
		}
		b.Minify = boolOr(body.Minify, b.Kind != KindRaw)
		if body.Base != nil {
			b.Base = *body.Base
		}
		if body.Qualifier != nil {
			b.Qualifier = *body.Qualifier
		}
		if b.Symbol == "" {
			b.Symbol = DefaultSymbol(body.Source)
		}

		output := orDefault(body.Output, DefaultOutput(body.Source))
		if filepath.IsAbs(output) {
			b.Output = output
		} else {
			b.Output = filepath.Join(m.OutputDir, output)
		}

		if b.Kind != KindPage && (len(body.Stylesheets) > 0 || len(body.Scripts) > 0) {
			return nil, fmt.Errorf("bundle %q: stylesheet and script blocks are only allowed in page bundles", b.Name)
		}
		for _, s := range body.Stylesheets {
			b.Stylesheets = append(b.Stylesheets, Stylesheet{
				Path: abs(s.Path),
				Href: orDefault(s.Href, filepath.Base(s.Path)),
			})
		}
		for _, s := range body.Scripts {
			b.Scripts = append(b.Scripts, Script{
				Path:            abs(s.Path),
				Src:             orDefault(s.Src, filepath.Base(s.Path)),
				PreserveGlobals: s.PreserveGlobals,
			})
		}
		b.Discover = b.Kind == KindPage && boolOr(body.Discover, len(b.Stylesheets) == 0 && len(b.Scripts) == 0)

		m.Bundles = append(m.Bundles, b)
	}
	return m, nil
}

// Validate checks bundle fields, uniqueness of names, outputs, symbols and
// routes, and the required tool version.
func (m *Manifest) Validate() error {
	if m.RequiredVersion != "" {
		ok, err := version.Satisfies(m.RequiredVersion)
		if err != nil {
			return fmt.Errorf("invalid required_version: %w", err)
		}
		if !ok {
			return fmt.Errorf("requires assetgen %s or newer (running %s)", m.RequiredVersion, version.Version)
		}
	}

	if len(m.Bundles) == 0 {
		return fmt.Errorf("no bundles defined")
	}

	seen := map[string]map[string]string{
		"name":   {},
		"output": {},
		"symbol": {},
		"route":  {},
	}
	claim := func(field, value, owner string) error {
		if value == "" {
			return nil
		}
		if prev, dup := seen[field][value]; dup {
			return fmt.Errorf("bundles %q and %q share %s %q", prev, owner, field, value)
		}
		seen[field][value] = owner
		return nil
	}

	for _, b := range m.Bundles {
		if err := validate.Struct(b); err != nil {
			return fmt.Errorf("bundle %q: %w", b.Name, describe(err))
		}
		for _, c := range []struct{ field, value string }{
			{"name", b.Name},
			{"output", b.Output},
			{"symbol", b.Symbol},
			{"route", b.Route},
		} {
			if err := claim(c.field, c.value, b.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("c_ident", func(fl validator.FieldLevel) bool {
		return carray.IsIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("bundle_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "" && strings.IndexFunc(name, func(r rune) bool {
			return !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
		}) < 0
	})
	return v
}

// describe turns validator errors into one readable line per field.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "c_ident":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a valid C identifier", field, fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value()))
		case "startswith":
			msgs = append(msgs, fmt.Sprintf("%s must start with %q", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	sort.Strings(msgs)
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
