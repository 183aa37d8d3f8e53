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

// Package minifier shrinks CSS, JavaScript and HTML sources.
//
// CSS and JavaScript go through esbuild's transform API. HTML goes through
// tdewolff/minify with a conservative configuration that keeps document tags,
// end tags and attribute quotes, and leaves inline <style>/<script> contents
// untouched.
package minifier

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// JSOptions controls JavaScript minification for a single file.
type JSOptions struct {
	// PreserveGlobals keeps top-level declarations in the global scope with
	// their original names. Scripts whose globals are read by a script loaded
	// later at runtime must set this. When false, the file is wrapped in an
	// IIFE and its top-level names may be shortened.
	PreserveGlobals bool
}

// Minifier is the set of transforms used by the pipeline.
type Minifier interface {
	CSS(src []byte) ([]byte, error)
	JS(src []byte, opts JSOptions) ([]byte, error)
	HTML(src []byte) ([]byte, error)
}

// Engine is the production Minifier.
type Engine struct {
	target api.Target
	html   *tdminify.M
}

// New creates an Engine targeting ES2017, which covers the browsers that
// talk to the device UI. Scripts that keep their globals are emitted without
// syntax lowering.
func New() *Engine {
	m := tdminify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})

	return &Engine{
		target: api.ES2017,
		html:   m,
	}
}

// CSS minifies a stylesheet.
func (e *Engine) CSS(src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, transformError("css", result.Errors)
	}
	return bytes.TrimRight(result.Code, "\n"), nil
}

// JS minifies a script according to opts.
func (e *Engine) JS(src []byte, opts JSOptions) ([]byte, error) {
	options := api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            e.target,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	}

	if opts.PreserveGlobals {
		// Without an output format esbuild treats the input as a classic
		// script: top-level names are globals and are neither renamed nor
		// dropped. Syntax is not lowered, since lowering adds helper
		// declarations at the top level and those would become globals
		// shared with every other script of the page.
		options.Format = api.FormatDefault
		options.TreeShaking = api.TreeShakingFalse
		options.Target = api.ESNext
	} else {
		options.Format = api.FormatIIFE
	}

	result := api.Transform(string(src), options)
	if len(result.Errors) > 0 {
		return nil, transformError("js", result.Errors)
	}
	return bytes.TrimRight(result.Code, "\n"), nil
}

// HTML minifies a document.
func (e *Engine) HTML(src []byte) ([]byte, error) {
	out, err := e.html.Bytes("text/html", src)
	if err != nil {
		return nil, fmt.Errorf("html minify failed: %w", err)
	}
	return out, nil
}

func transformError(kind string, msgs []api.Message) error {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
		} else {
			parts = append(parts, m.Text)
		}
	}
	return fmt.Errorf("%s minify failed with %d error(s): %s", kind, len(msgs), strings.Join(parts, "; "))
}

// Passthrough is a Minifier that returns its input unchanged. It is used for
// bundles with minification disabled.
type Passthrough struct{}

// CSS returns src unchanged.
func (Passthrough) CSS(src []byte) ([]byte, error) { return src, nil }

// JS returns src unchanged.
func (Passthrough) JS(src []byte, _ JSOptions) ([]byte, error) { return src, nil }

// HTML returns src unchanged.
func (Passthrough) HTML(src []byte) ([]byte, error) { return src, nil }
