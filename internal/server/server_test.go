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

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phuonguno98/assetgen/internal/compress"
	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/pkg/carray"
)

const setupPage = "<!DOCTYPE html><html><body><h1>Setup</h1></body></html>"

// newTestServer writes a gzip header for the setup page and a plain header
// for the logo, and leaves the creds bundle unbuilt.
func newTestServer(t *testing.T) (*Server, *manifest.Manifest) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "assetgen_server_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(tempDir); err != nil {
			t.Logf("Failed to clean up temp dir: %v", err)
		}
	})

	m := &manifest.Manifest{
		Dir:       tempDir,
		OutputDir: tempDir,
		Bundles: []*manifest.Bundle{
			{Name: "setup", Kind: manifest.KindPage, Source: "setup.htm", Output: filepath.Join(tempDir, "setup_htm.h"), Symbol: "_acsetup_min_htm", Route: "/setup"},
			{Name: "logo", Kind: manifest.KindRaw, Source: "logo.svg", Output: filepath.Join(tempDir, "logo_svg.h"), Symbol: "_aclogo_svg", Route: "/config/logo.svg"},
			{Name: "creds", Kind: manifest.KindScript, Source: "creds.js", Output: filepath.Join(tempDir, "creds_js.h"), Symbol: "_accreds_js", Route: "/creds.js"},
			{Name: "fonts", Kind: manifest.KindRaw, Source: "font.woff", Output: filepath.Join(tempDir, "font_woff.h"), Symbol: "_acfont"},
		},
	}

	gz, err := compress.Gzip([]byte(setupPage))
	if err != nil {
		t.Fatal(err)
	}
	writeHeader(t, m.Bundles[0], gz.Data)
	writeHeader(t, m.Bundles[1], []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(m, logger)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv, m
}

func writeHeader(t *testing.T, b *manifest.Bundle, data []byte) {
	t.Helper()
	lit, err := carray.Encode(data, carray.Base16, b.Symbol, carray.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b.Output, []byte(lit.Text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func get(srv *Server, path, acceptEncoding string) *http.Response {
	req := httptest.NewRequest("GET", path, http.NoBody)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w.Result()
}

func TestServer_DeviceRouteGzip(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(srv, "/setup", "gzip, deflate, br")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /setup status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != DeviceCacheControl {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", got)
	}

	body, _ := io.ReadAll(resp.Body)
	if !compress.IsGzip(body) {
		t.Fatal("body is not gzip")
	}
	plain, err := compress.Gunzip(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != setupPage {
		t.Errorf("decompressed body = %q", plain)
	}
}

func TestServer_DeviceRouteWithoutGzipSupport(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, enc := range []string{"", "identity", "gzip;q=0"} {
		resp := get(srv, "/setup", enc)
		if got := resp.Header.Get("Content-Encoding"); got != "" {
			t.Errorf("Accept-Encoding %q: Content-Encoding = %q, want none", enc, got)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != setupPage {
			t.Errorf("Accept-Encoding %q: body = %q", enc, body)
		}
	}
}

func TestServer_PlainPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(srv, "/config/logo.svg", "gzip")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none for a plain payload", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestServer_UnbuiltBundle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(srv, "/creds.js", "gzip")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /creds.js status = %v, want %v", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_MalformedHeader(t *testing.T) {
	srv, m := newTestServer(t)
	if err := os.WriteFile(m.Bundles[2].Output, []byte("not a header"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp := get(srv, "/creds.js", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestServer_ApiBundles(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(srv, "/api/bundles", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/bundles status = %v", resp.StatusCode)
	}
	var infos []BundleInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 4 {
		t.Fatalf("bundles = %d, want 4", len(infos))
	}

	setup := infos[0]
	if !setup.Built || !setup.Gzip || setup.RawSize != len(setupPage) || setup.Size == 0 {
		t.Errorf("setup info = %+v", setup)
	}
	if infos[2].Built || infos[2].Error != "" {
		t.Errorf("creds should be unbuilt without error: %+v", infos[2])
	}

	resp = get(srv, "/api/bundles/logo", "")
	var logo BundleInfo
	if err := json.NewDecoder(resp.Body).Decode(&logo); err != nil {
		t.Fatal(err)
	}
	if logo.Route != "/config/logo.svg" || logo.Gzip {
		t.Errorf("logo info = %+v", logo)
	}

	resp = get(srv, "/api/bundles/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown bundle status = %v", resp.StatusCode)
	}
}

func TestServer_IndexAndVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(srv, "/", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "assetgen preview") {
		t.Errorf("GET / status = %v", resp.StatusCode)
	}

	resp = get(srv, "/static/preview.js", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /static/preview.js status = %v", resp.StatusCode)
	}

	resp = get(srv, "/api/version", "")
	var v map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v["version"] == "" {
		t.Error("version missing")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestNewServer_RouteCollision(t *testing.T) {
	m := &manifest.Manifest{Bundles: []*manifest.Bundle{
		{Name: "bad", Route: "/api/bundles"},
	}}
	if _, err := NewServer(m, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected route collision error")
	}
}

func TestAcceptsGzip(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip", true},
		{"GZIP", true},
		{"deflate, gzip;q=0.8", true},
		{"gzip;q=0", false},
		{"*", true},
		{"br", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.Header.Set("Accept-Encoding", tt.header)
		if got := acceptsGzip(req); got != tt.want {
			t.Errorf("acceptsGzip(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
