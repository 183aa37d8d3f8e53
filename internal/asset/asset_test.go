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

package asset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"setup.htm", KindHTML},
		{"INDEX.HTML", KindHTML},
		{"style.css", KindCSS},
		{"app.js", KindJS},
		{"logo.svg", KindSVG},
		{"logo.png", KindBinary},
		{"noext", KindBinary},
	}

	for _, tt := range tests {
		if got := KindOf(tt.path); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	if err := os.WriteFile(path, []byte("body { color: red; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src.Kind != KindCSS {
		t.Errorf("Kind = %v, want %v", src.Kind, KindCSS)
	}
	if src.Size() != 20 {
		t.Errorf("Size() = %d, want 20", src.Size())
	}
	if src.MIME() != "text/css" {
		t.Errorf("MIME() = %q, want text/css", src.MIME())
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.js"))
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("Load() error = %v, want ErrSourceMissing", err)
	}
}

func TestDetectMIME_Binary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if got := DetectMIME("logo.bin", png); got != "image/png" {
		t.Errorf("DetectMIME(png) = %q, want image/png", got)
	}

	gz := []byte{0x1f, 0x8b, 0x08, 0x00}
	if got := DetectMIME("blob", gz); got != "application/gzip" {
		t.Errorf("DetectMIME(gzip) = %q, want application/gzip", got)
	}
}
