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

// Package asset reads pipeline source files and classifies them by kind.
package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind identifies the type of a source asset.
type Kind string

// Asset kinds handled by the pipeline.
const (
	KindHTML   Kind = "html"
	KindCSS    Kind = "css"
	KindJS     Kind = "js"
	KindSVG    Kind = "svg"
	KindBinary Kind = "binary"
)

// ErrSourceMissing is returned when a required source file does not exist.
var ErrSourceMissing = errors.New("source asset missing")

// Source is an asset read from disk. Its Data must not be modified.
type Source struct {
	Kind Kind
	Path string
	Data []byte
}

// Size returns the number of raw bytes.
func (s *Source) Size() int {
	return len(s.Data)
}

// MIME returns the detected content type of the asset.
func (s *Source) MIME() string {
	return DetectMIME(s.Path, s.Data)
}

// Load reads the file at path. A missing file yields an error wrapping
// ErrSourceMissing.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return &Source{
		Kind: KindOf(path),
		Path: path,
		Data: data,
	}, nil
}

// KindOf classifies a path by extension.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".htm", ".html":
		return KindHTML
	case ".css":
		return KindCSS
	case ".js", ".mjs":
		return KindJS
	case ".svg":
		return KindSVG
	default:
		return KindBinary
	}
}

// DetectMIME returns a content type for data, preferring the extension for
// text assets where sniffing is unreliable.
func DetectMIME(path string, data []byte) string {
	switch KindOf(path) {
	case KindHTML:
		return "text/html"
	case KindCSS:
		return "text/css"
	case KindJS:
		return "application/javascript"
	case KindSVG:
		return "image/svg+xml"
	}

	mt := mimetype.Detect(data)
	// mimetype appends parameters like charset for text types.
	if i := strings.Index(mt.String(), ";"); i != -1 {
		return mt.String()[:i]
	}
	return mt.String()
}
