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

// Package pipeline turns manifest bundles into C byte-array headers.
//
// Each bundle runs load, minify, inline, compress, encode and write in order
// on the calling goroutine. A failing bundle is reported and skipped; the
// bundles around it are unaffected.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/phuonguno98/assetgen/internal/compress"
	"github.com/phuonguno98/assetgen/internal/inline"
	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/internal/minifier"
	"github.com/phuonguno98/assetgen/internal/writer"
	"github.com/phuonguno98/assetgen/pkg/carray"
)

// Outcome is how a bundle build ended.
type Outcome string

// Bundle outcomes.
const (
	OutcomeWritten  Outcome = "written"
	OutcomeDeclined Outcome = "declined"
	OutcomeFailed   Outcome = "failed"
)

// FileWriter stores a generated header. It reports false when the write was
// declined.
type FileWriter interface {
	Write(path string, content []byte) (bool, error)
}

// Result describes one bundle build.
type Result struct {
	Bundle         string
	Kind           manifest.Kind
	Output         string
	Symbol         string
	MIME           string
	Gzip           bool
	SourceSize     int // Raw bytes of every input file
	MinifiedSize   int // Payload bytes before compression
	CompressedSize int // Payload bytes embedded in the header
	Outcome        Outcome
	Duration       time.Duration
	Err            error
}

// Builder runs bundles through the pipeline.
type Builder struct {
	minifier   minifier.Minifier
	writer     FileWriter
	logger     *slog.Logger
	workDir    string
	minifyHTML bool
	runID      string
}

// Option configures a Builder.
type Option func(*Builder)

// WithMinifier replaces the default esbuild-backed minifier.
func WithMinifier(m minifier.Minifier) Option {
	return func(b *Builder) { b.minifier = m }
}

// WithWorkDir stores intermediate artifacts under dir. An empty dir disables
// them.
func WithWorkDir(dir string) Option {
	return func(b *Builder) { b.workDir = dir }
}

// WithHTMLMinification minifies page documents after inlining.
func WithHTMLMinification(enabled bool) Option {
	return func(b *Builder) { b.minifyHTML = enabled }
}

// NewBuilder creates a builder writing headers through w.
func NewBuilder(w FileWriter, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		minifier: minifier.New(),
		writer:   w,
		logger:   logger,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunID identifies this builder's run in logs and reports.
func (b *Builder) RunID() string {
	return b.runID
}

// Run builds bundles in order. The context is checked between bundles; once
// it is done the remaining bundles are not started. The returned error joins
// every bundle failure.
func (b *Builder) Run(ctx context.Context, bundles []*manifest.Bundle) ([]*Result, error) {
	b.logger.Info("Starting build", "run", b.runID, "bundles", len(bundles))

	results := make([]*Result, 0, len(bundles))
	var errs []error

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("build stopped before bundle %s: %w", bundle.Name, err))
			break
		}

		res := b.Build(bundle)
		results = append(results, res)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	b.logger.Info("Build finished", "run", b.runID, "bundles", len(results), "failed", len(errs))
	return results, errors.Join(errs...)
}

// Build produces the header of a single bundle. Failures are returned in
// Result.Err as a *BundleError.
func (b *Builder) Build(bundle *manifest.Bundle) *Result {
	start := time.Now()
	log := b.logger.With("run", b.runID, "bundle", bundle.Name)

	res := &Result{
		Bundle: bundle.Name,
		Kind:   bundle.Kind,
		Output: bundle.Output,
		Symbol: bundle.Symbol,
		Gzip:   bundle.Gzip,
	}

	err := b.build(bundle, res, log)
	res.Duration = time.Since(start)

	switch {
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Err = err
		log.Error("Bundle failed",
			"stage", err.Stage,
			"kind", err.Kind.String(),
			"error", err.Err,
		)
	case res.Outcome == OutcomeDeclined:
		log.Warn("Bundle not written, overwrite declined", "output", bundle.Output)
	default:
		log.Info("Bundle built",
			"output", bundle.Output,
			"source_bytes", res.SourceSize,
			"minified_bytes", res.MinifiedSize,
			"compressed_bytes", res.CompressedSize,
			"duration", res.Duration,
		)
	}
	return res
}

func (b *Builder) build(bundle *manifest.Bundle, res *Result, log *slog.Logger) *BundleError {
	var (
		content []byte
		berr    *BundleError
	)
	switch bundle.Kind {
	case manifest.KindPage:
		content, berr = b.buildPage(bundle, res, log)
	case manifest.KindScript:
		content, berr = b.buildScript(bundle, res, log)
	case manifest.KindRaw:
		content, berr = b.buildRaw(bundle, res)
	default:
		berr = transformError(bundle.Name, StageLoad, fmt.Errorf("unknown bundle kind %q", bundle.Kind))
	}
	if berr != nil {
		return berr
	}
	res.MinifiedSize = len(content)
	if res.MIME == "" {
		res.MIME = asset.DetectMIME(bundle.Source, content)
	}

	// Compress
	payload := compress.Store(content)
	if bundle.Gzip {
		log.Debug("Compressing", "stage", StageCompress, "bytes", len(content))
		var err error
		payload, err = compress.Gzip(content)
		if err != nil {
			return transformError(bundle.Name, StageCompress, err)
		}
		b.saveArtifact(log, bundle.Name, filepath.Base(bundle.Source)+".gz", payload.Data)
	}
	res.CompressedSize = payload.CompressedSize

	// Encode
	log.Debug("Encoding", "stage", StageEncode, "base", bundle.Base, "symbol", bundle.Symbol)
	lit, err := carray.Encode(payload.Data, bundle.Base, bundle.Symbol, carray.Options{
		Qualifier:   bundle.Qualifier,
		BytesPerRow: carray.DefaultBytesPerRow,
		Comments:    HeaderComments(filepath.Base(bundle.Source), res.MIME, bundle.Gzip, payload),
	})
	if err != nil {
		return transformError(bundle.Name, StageEncode, err)
	}

	// Write
	written, err := b.writer.Write(bundle.Output, []byte(lit.Text))
	if err != nil {
		return &BundleError{Bundle: bundle.Name, Stage: StageWrite, Kind: IOFailure, Err: err}
	}
	if written {
		res.Outcome = OutcomeWritten
	} else {
		res.Outcome = OutcomeDeclined
	}
	return nil
}

// HeaderComments returns the comment lines placed above a generated array.
// They carry no timestamps so identical inputs produce identical headers.
func HeaderComments(source, mime string, gzipped bool, p *compress.Payload) []string {
	comments := []string{
		"Generated by assetgen from " + source + ". Do not edit.",
		"MIME type: " + mime,
	}
	if gzipped {
		comments = append(comments,
			"Content-Encoding: gzip",
			fmt.Sprintf("Original size: %d bytes, compressed: %d bytes", p.OriginalSize, p.CompressedSize),
		)
	} else {
		comments = append(comments, fmt.Sprintf("Size: %d bytes", p.OriginalSize))
	}
	return comments
}

// part is a stylesheet or script inlined into a page.
type part struct {
	kind            asset.Kind
	path            string
	ref             string
	preserveGlobals bool
}

func (b *Builder) buildPage(bundle *manifest.Bundle, res *Result, log *slog.Logger) ([]byte, *BundleError) {
	log.Debug("Loading page", "stage", StageLoad, "source", bundle.Source)
	page, err := asset.Load(bundle.Source)
	if err != nil {
		return nil, loadError(bundle.Name, err)
	}
	res.SourceSize += page.Size()
	res.MIME = page.MIME()

	parts, err := pageParts(bundle, page)
	if err != nil {
		return nil, transformError(bundle.Name, StageInline, err)
	}

	refs := make([]inline.Reference, 0, len(parts))
	for _, p := range parts {
		src, err := asset.Load(p.path)
		if err != nil {
			return nil, loadError(bundle.Name, err)
		}
		res.SourceSize += src.Size()

		content := src.Data
		if bundle.Minify {
			log.Debug("Minifying", "stage", StageMinify, "source", p.path)
			if content, err = b.minify(p.kind, src.Data, p.preserveGlobals); err != nil {
				return nil, transformError(bundle.Name, StageMinify, fmt.Errorf("%s: %w", p.path, err))
			}
			b.saveArtifact(log, bundle.Name, filepath.Base(p.path), content)
		}
		refs = append(refs, inline.Reference{Kind: p.kind, Ref: p.ref, Content: content})
	}

	log.Debug("Inlining", "stage", StageInline, "references", len(refs))
	doc, err := inline.Inline(page.Data, refs)
	if err != nil {
		return nil, transformError(bundle.Name, StageInline, err)
	}

	if b.minifyHTML {
		if doc, err = b.minifier.HTML(doc); err != nil {
			return nil, transformError(bundle.Name, StageMinify, err)
		}
	}

	if err := inline.CheckSelfContained(doc, bundle.External); err != nil {
		return nil, transformError(bundle.Name, StageInline, err)
	}

	b.saveArtifact(log, bundle.Name, filepath.Base(bundle.Source), doc)
	return doc, nil
}

// pageParts lists the files to inline: the declared stylesheets and scripts,
// or every local reference of the document for discovering bundles.
func pageParts(bundle *manifest.Bundle, page *asset.Source) ([]part, error) {
	var parts []part
	for _, s := range bundle.Stylesheets {
		parts = append(parts, part{kind: asset.KindCSS, path: s.Path, ref: s.Href})
	}
	for _, s := range bundle.Scripts {
		parts = append(parts, part{kind: asset.KindJS, path: s.Path, ref: s.Src, preserveGlobals: s.PreserveGlobals})
	}
	if !bundle.Discover {
		return parts, nil
	}

	links, err := inline.Discover(page.Data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(bundle.Source)
	for _, l := range links {
		if inline.Listed(bundle.External, l.Ref) {
			continue
		}
		parts = append(parts, part{
			kind:            l.Kind,
			path:            filepath.Join(dir, filepath.FromSlash(path.Clean(inline.LocalPath(l.Ref)))),
			ref:             l.Ref,
			preserveGlobals: bundle.PreserveGlobals,
		})
	}
	return parts, nil
}

func (b *Builder) buildScript(bundle *manifest.Bundle, res *Result, log *slog.Logger) ([]byte, *BundleError) {
	log.Debug("Loading script", "stage", StageLoad, "source", bundle.Source)
	src, err := asset.Load(bundle.Source)
	if err != nil {
		return nil, loadError(bundle.Name, err)
	}
	res.SourceSize = src.Size()
	res.MIME = src.MIME()

	if !bundle.Minify {
		return src.Data, nil
	}

	log.Debug("Minifying", "stage", StageMinify, "preserve_globals", bundle.PreserveGlobals)
	out, err := b.minifier.JS(src.Data, minifier.JSOptions{PreserveGlobals: bundle.PreserveGlobals})
	if err != nil {
		return nil, transformError(bundle.Name, StageMinify, err)
	}
	b.saveArtifact(log, bundle.Name, filepath.Base(bundle.Source), out)
	return out, nil
}

func (b *Builder) buildRaw(bundle *manifest.Bundle, res *Result) ([]byte, *BundleError) {
	src, err := asset.Load(bundle.Source)
	if err != nil {
		return nil, loadError(bundle.Name, err)
	}
	res.SourceSize = src.Size()
	res.MIME = src.MIME()
	return src.Data, nil
}

func (b *Builder) minify(kind asset.Kind, src []byte, preserveGlobals bool) ([]byte, error) {
	switch kind {
	case asset.KindCSS:
		return b.minifier.CSS(src)
	case asset.KindJS:
		return b.minifier.JS(src, minifier.JSOptions{PreserveGlobals: preserveGlobals})
	default:
		return src, nil
	}
}

// saveArtifact keeps an intermediate file for inspection. Artifacts are not
// authoritative, so failures are only logged.
func (b *Builder) saveArtifact(log *slog.Logger, bundle, name string, data []byte) {
	if b.workDir == "" {
		return
	}
	dir := filepath.Join(b.workDir, bundle)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("Failed to create work directory", "dir", dir, "error", err)
		return
	}
	p := filepath.Join(dir, name)
	if err := writer.WriteFileAtomic(p, data); err != nil {
		log.Warn("Failed to save artifact", "path", p, "error", err)
		return
	}
	log.Debug("Artifact saved", "path", p, "bytes", len(data))
}
