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

// Package inline replaces external stylesheet and script references in an
// HTML document with inline <style> and <script> blocks.
//
// Substitution is textual: only the matched tags change and every other byte
// of the document is preserved. Tag matching tolerates attribute order,
// single, double or missing quotes, extra attributes and letter case.
package inline

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuonguno98/assetgen/internal/asset"
)

var (
	// ErrReferenceNotFound is returned when a configured asset has no
	// matching tag in the document.
	ErrReferenceNotFound = errors.New("reference not found in document")
	// ErrNotSelfContained is returned when local references remain after
	// inlining that were not declared external.
	ErrNotSelfContained = errors.New("document is not self-contained")
)

// Reference is an asset to inline. Ref is the href/src value as written in
// the document; Content is the text placed inside the inline block.
type Reference struct {
	Kind    asset.Kind
	Ref     string
	Content []byte
}

// Link is a local stylesheet or script reference found in a document.
type Link struct {
	Kind asset.Kind
	Ref  string
}

var (
	linkTagRe       = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	scriptTagRe     = regexp.MustCompile(`(?is)<script\b[^>]*>\s*</script\s*>`)
	scriptOpen      = regexp.MustCompile(`(?is)^<script\b[^>]*>`)
	closingStyleRe  = regexp.MustCompile(`(?i)</(style)`)
	closingScriptRe = regexp.MustCompile(`(?i)</(script)`)
	attrRe          = regexp.MustCompile("([^\\s\"'=<>/]+)(?:\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+)))?")
)

// Inline substitutes every reference in refs and returns the new document.
// Each reference must match at least one tag.
func Inline(doc []byte, refs []Reference) ([]byte, error) {
	out := string(doc)
	for _, ref := range refs {
		var (
			n   int
			err error
		)
		switch ref.Kind {
		case asset.KindCSS:
			out, n = replaceStylesheet(out, ref)
		case asset.KindJS:
			out, n = replaceScript(out, ref)
		default:
			err = fmt.Errorf("cannot inline %s asset %q", ref.Kind, ref.Ref)
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, ref.Ref)
		}
	}
	return []byte(out), nil
}

func replaceStylesheet(doc string, ref Reference) (string, int) {
	count := 0
	out := linkTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		attrs := parseAttrs(tag, "link")
		if !hasToken(attrs["rel"], "stylesheet") || !sameRef(attrs["href"], ref.Ref) {
			return tag
		}
		count++
		return "<style>" + escapeClosing(string(ref.Content), "style") + "</style>"
	})
	return out, count
}

func replaceScript(doc string, ref Reference) (string, int) {
	count := 0
	out := scriptTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		open := scriptOpen.FindString(tag)
		attrs := parseAttrs(open, "script")
		src, ok := attrs["src"]
		if !ok || !sameRef(src, ref.Ref) {
			return tag
		}
		count++
		openTag := "<script>"
		if t := strings.ToLower(attrs["type"]); t != "" && t != "text/javascript" {
			openTag = `<script type="` + attrs["type"] + `">`
		}
		return openTag + escapeClosing(string(ref.Content), "script") + "</script>"
	})
	return out, count
}

// parseAttrs extracts attributes from an opening tag. Names are lower-cased.
func parseAttrs(tag, name string) map[string]string {
	body := tag
	if len(body) > len(name)+1 {
		body = body[len(name)+1:]
	}
	body = strings.TrimSuffix(body, ">")
	body = strings.TrimSuffix(body, "/")

	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(body, -1) {
		key := strings.ToLower(m[1])
		if _, seen := attrs[key]; seen {
			continue
		}
		attrs[key] = m[2] + m[3] + m[4]
	}
	return attrs
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}

// sameRef compares two references ignoring a leading "./" or "/", and any
// query string or fragment.
func sameRef(a, b string) bool {
	return normalizeRef(a) == normalizeRef(b) && normalizeRef(a) != ""
}

// Listed reports whether ref matches an entry of list.
func Listed(list []string, ref string) bool {
	for _, l := range list {
		if sameRef(l, ref) {
			return true
		}
	}
	return false
}

// LocalPath returns ref as a slash-separated path relative to the document,
// without query string or fragment.
func LocalPath(ref string) string {
	return normalizeRef(ref)
}

func normalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i != -1 {
		ref = ref[:i]
	}
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimLeft(ref, "/")
	return ref
}

// escapeClosing prevents inlined content from terminating its block early.
func escapeClosing(content, tag string) string {
	re := closingStyleRe
	if tag == "script" {
		re = closingScriptRe
	}
	return re.ReplaceAllString(content, `<\/$1`)
}

// IsRemote reports whether ref points outside the bundle (absolute URL,
// protocol-relative URL or data URI).
func IsRemote(ref string) bool {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme != ""
}

// Discover lists local stylesheet and script references in document order,
// stylesheets first.
func Discover(doc []byte) ([]Link, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)

	d.Find(`link[rel~="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		key := "css:" + normalizeRef(href)
		if href == "" || IsRemote(href) || seen[key] {
			return
		}
		seen[key] = true
		links = append(links, Link{Kind: asset.KindCSS, Ref: href})
	})

	d.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		key := "js:" + normalizeRef(src)
		if src == "" || IsRemote(src) || seen[key] {
			return
		}
		seen[key] = true
		links = append(links, Link{Kind: asset.KindJS, Ref: src})
	})

	return links, nil
}

// CheckSelfContained fails if doc still references local stylesheets or
// scripts other than those listed in external.
func CheckSelfContained(doc []byte, external []string) error {
	links, err := Discover(doc)
	if err != nil {
		return err
	}

	var remaining []string
	for _, l := range links {
		if !Listed(external, l.Ref) {
			remaining = append(remaining, l.Ref)
		}
	}
	if len(remaining) > 0 {
		return fmt.Errorf("%w: still references %s", ErrNotSelfContained, strings.Join(remaining, ", "))
	}
	return nil
}
