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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/phuonguno98/assetgen/internal/compress"
	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/pkg/carray"
	"github.com/phuonguno98/assetgen/pkg/version"
	"github.com/phuonguno98/assetgen/web"
)

// DeviceCacheControl is the Cache-Control value the firmware sends with
// embedded assets.
const DeviceCacheControl = "public, max-age=86400"

// Server previews generated headers the way the device serves them.
type Server struct {
	manifest *manifest.Manifest
	logger   *slog.Logger
	router   *mux.Router
}

// BundleInfo describes a bundle and its generated header. Size counts the
// bytes embedded in the header, RawSize the bytes after decompression.
type BundleInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Route   string `json:"route,omitempty"`
	Symbol  string `json:"symbol"`
	Output  string `json:"output"`
	Built   bool   `json:"built"`
	Gzip    bool   `json:"gzip"`
	Size    int    `json:"size"`
	RawSize int    `json:"raw_size"`
	MIME    string `json:"mime,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates a preview server for the bundles of m. Every bundle with
// a route is served on it; headers are read on each request so rebuilt files
// show up without a restart.
func NewServer(m *manifest.Manifest, logger *slog.Logger) (*Server, error) {
	s := &Server{
		manifest: m,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	// Add CORS middleware
	s.router.Use(corsMiddleware)
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/bundles", s.handleGetBundles).Methods("GET")
	s.router.HandleFunc("/api/bundles/{name}", s.handleGetBundle).Methods("GET")

	// Device routes
	for _, b := range s.manifest.Bundles {
		if b.Route == "" {
			continue
		}
		if b.Route == "/" || strings.HasPrefix(b.Route, "/api/") || strings.HasPrefix(b.Route, "/static/") {
			return fmt.Errorf("bundle %s: route %s collides with a preview route", b.Name, b.Route)
		}
		s.router.Handle(b.Route, s.assetHandler(b)).Methods("GET", "HEAD")
		s.logger.Debug("Device route registered", "route", b.Route, "bundle", b.Name)
	}

	// Static files from embedded FS
	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return fmt.Errorf("failed to get static assets: %w", err)
	}
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", s.staticFileHandler(staticFS)))
	return nil
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests and tags responses with a request ID
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// staticFileHandler serves static files with caching disabled
func (s *Server) staticFileHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fileServer.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleIndex serves the preview index page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	// Read index.html from embedded assets
	indexFile, err := web.Assets.Open("index.html")
	if err != nil {
		s.logger.Error("Failed to open index.html", "error", err)
		http.Error(w, "Internal Server Error: index.html not found", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := indexFile.Close(); err != nil {
			s.logger.Warn("Failed to close index.html", "error", err)
		}
	}()

	if _, err := io.Copy(w, indexFile); err != nil {
		s.logger.Error("Failed to serve index.html", "error", err)
	}
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	versionInfo := map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	}
	s.writeJSON(w, versionInfo)
}

// handleGetBundles lists every bundle with the state of its header.
func (s *Server) handleGetBundles(w http.ResponseWriter, _ *http.Request) {
	infos := make([]BundleInfo, 0, len(s.manifest.Bundles))
	for _, b := range s.manifest.Bundles {
		infos = append(infos, s.describe(b))
	}
	s.writeJSON(w, infos)
}

// handleGetBundle returns one bundle by name.
func (s *Server) handleGetBundle(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	b, ok := s.manifest.Bundle(name)
	if !ok {
		s.writeError(w, fmt.Sprintf("unknown bundle %q", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.describe(b))
}

func (s *Server) describe(b *manifest.Bundle) BundleInfo {
	info := BundleInfo{
		Name:   b.Name,
		Kind:   string(b.Kind),
		Route:  b.Route,
		Symbol: b.Symbol,
		Output: b.Output,
	}

	p, err := readPayload(b)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			info.Error = err.Error()
		}
		return info
	}

	info.Built = true
	info.Gzip = p.gzip
	info.Size = len(p.data)
	info.RawSize = len(p.plain)
	info.MIME = p.mime
	return info
}

// assetHandler serves a bundle's embedded bytes like the firmware does:
// gzip payloads go out as-is with Content-Encoding when the client accepts
// gzip, and decompressed otherwise.
func (s *Server) assetHandler(b *manifest.Bundle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := readPayload(b)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.writeError(w, fmt.Sprintf("bundle %s has not been built", b.Name), http.StatusNotFound)
				return
			}
			s.logger.Error("Failed to read header", "bundle", b.Name, "output", b.Output, "error", err)
			s.writeError(w, fmt.Sprintf("failed to read %s: %v", b.Output, err), http.StatusInternalServerError)
			return
		}

		body := p.plain
		w.Header().Set("Content-Type", p.mime)
		w.Header().Set("Cache-Control", DeviceCacheControl)
		if p.gzip {
			w.Header().Set("Vary", "Accept-Encoding")
			if acceptsGzip(r) {
				w.Header().Set("Content-Encoding", "gzip")
				body = p.data
			}
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(http.StatusOK)

		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(body); err != nil {
			s.logger.Warn("Failed to write response", "bundle", b.Name, "error", err)
		}
	})
}

type payload struct {
	data  []byte // Bytes as embedded in the header
	plain []byte // Decompressed bytes
	gzip  bool
	mime  string
}

func readPayload(b *manifest.Bundle) (*payload, error) {
	text, err := os.ReadFile(b.Output)
	if err != nil {
		return nil, err
	}

	dec, err := carray.Decode(string(text))
	if err != nil {
		return nil, err
	}

	p := &payload{data: dec.Data, plain: dec.Data}
	if compress.IsGzip(dec.Data) {
		plain, err := compress.Gunzip(dec.Data)
		if err != nil {
			return nil, err
		}
		p.gzip = true
		p.plain = plain
	}
	p.mime = asset.DetectMIME(b.Source, p.plain)
	return p, nil
}

// acceptsGzip reports whether the request's Accept-Encoding allows gzip.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		if coding != "gzip" && coding != "*" {
			continue
		}
		q := strings.ReplaceAll(strings.ToLower(params), " ", "")
		if q == "q=0" || q == "q=0.0" || q == "q=0.00" || q == "q=0.000" {
			return false
		}
		return true
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
