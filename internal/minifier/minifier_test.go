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

package minifier

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appJS = `
// Shared with creds.js, which is loaded later.
var wifiCredentials = [];
let options = { hostname: "esp" };

function addCredential(ssid, password) {
  const entry = { ssid: ssid, password: password };
  wifiCredentials.push(entry);
  return entry;
}
`

func TestEngine_JS_PreserveGlobals(t *testing.T) {
	e := New()
	out, err := e.JS([]byte(appJS), JSOptions{PreserveGlobals: true})
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, len(s), len(appJS))
	assert.NotContains(t, s, "Shared with creds.js")
	assert.False(t, strings.HasPrefix(s, "(()=>"), "top level must not be wrapped: %s", s)
	assert.Equal(t, []string{"addCredential", "options", "wifiCredentials"}, topLevelNames(s))
}

// Both scripts use syntax newer than ES2017. They share the global scope of
// the page, so neither may declare anything its source does not.
const (
	spreadJS = `
var settings = { ssid: "x" };
function setDefaults() {
  settings = { dhcp: false, ...settings };
  return settings;
}
`
	restJS = `
var lastRest = null;
function pick(o) {
  const { ssid, ...rest } = o;
  lastRest = rest;
  return ssid;
}
async function* entries(list) {
  for await (const item of list) {
    yield item ?? null;
  }
}
`
)

func TestEngine_JS_PreserveGlobals_NoHelperGlobals(t *testing.T) {
	e := New()

	var all []string
	for _, src := range []string{appJS, spreadJS, restJS} {
		out, err := e.JS([]byte(src), JSOptions{PreserveGlobals: true})
		require.NoError(t, err)

		got := topLevelNames(string(out))
		assert.Equal(t, topLevelNames(src), got, "minified: %s", out)
		all = append(all, got...)
	}

	// No name is declared by more than one script.
	seen := make(map[string]bool)
	for _, n := range all {
		assert.False(t, seen[n], "%s declared twice", n)
		seen[n] = true
	}
}

func TestEngine_JS_PreserveGlobals_KeepsModernSyntax(t *testing.T) {
	e := New()
	out, err := e.JS([]byte(spreadJS), JSOptions{PreserveGlobals: true})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "...settings")
	assert.NotContains(t, s, "Object.defineProperty")
}

func TestTopLevelNames(t *testing.T) {
	src := `var a=1,b=function(x,y){var inner=x;return inner},c=[1,2];` +
		`let d="}var no=1";function f(){const g=2}/* var h */class K{}const{p}=q;`
	assert.Equal(t, []string{"K", "a", "b", "c", "d", "f"}, topLevelNames(src))
}

// topLevelNames returns the sorted names declared at the top level of a
// script by var, let, const, function and class. Destructuring patterns are
// not expanded.
func topLevelNames(src string) []string {
	var (
		names      []string
		depth      int
		inDecl     bool
		expectName bool
	)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case strings.HasPrefix(src[i:], "//"):
			j := strings.IndexByte(src[i:], '\n')
			if j == -1 {
				return sortedNames(names)
			}
			i += j
			continue
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j == -1 {
				return sortedNames(names)
			}
			i += j + 4
			continue
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
			expectName = false
			continue
		case isIdentStart(c):
			j := i
			for j < len(src) && (isIdentStart(src[j]) || (src[j] >= '0' && src[j] <= '9')) {
				j++
			}
			word := src[i:j]
			i = j
			if depth != 0 {
				continue
			}
			switch {
			case expectName:
				names = append(names, word)
				expectName = false
			case word == "var" || word == "let" || word == "const":
				inDecl, expectName = true, true
			case word == "function" || word == "class":
				expectName = true
			}
			continue
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '*' && expectName:
			// function* name
			i++
			continue
		}

		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ';':
			if depth == 0 {
				inDecl = false
			}
		}
		expectName = depth == 0 && inDecl && c == ','
		i++
	}
	return sortedNames(names)
}

func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func TestEngine_JS_Wrapped(t *testing.T) {
	e := New()
	out, err := e.JS([]byte(appJS), JSOptions{PreserveGlobals: false})
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "(()=>{"), "expected IIFE wrapper, got %s", s)
	assert.NotContains(t, s, "addCredential")
}

func TestEngine_JS_SyntaxError(t *testing.T) {
	e := New()
	_, err := e.JS([]byte("function ( {"), JSOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "js minify failed")
}

func TestEngine_CSS(t *testing.T) {
	e := New()
	src := "body {\n  color: #ff0000;\n  margin: 0px;\n}\n\n/* comment */\n.a { padding: 0 }\n"
	out, err := e.CSS([]byte(src))
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, len(s), len(src))
	assert.NotContains(t, s, "comment")
	assert.NotContains(t, s, "\n")
	assert.Contains(t, s, ".a{")
}

func TestEngine_HTML(t *testing.T) {
	e := New()
	src := "<!DOCTYPE html>\n<html>\n  <head>\n    <title>Setup</title>\n  </head>\n  <body>\n    <!-- note -->\n    <p class=\"x\">Hi</p>\n  </body>\n</html>\n"
	out, err := e.HTML([]byte(src))
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, len(s), len(src))
	assert.Contains(t, s, "<html>")
	assert.Contains(t, s, `class="x"`)
	assert.NotContains(t, s, "note")
}

func TestEngine_HTML_LeavesInlineScripts(t *testing.T) {
	e := New()
	script := "var  keep   =   1;"
	src := "<html><body><script>" + script + "</script></body></html>"
	out, err := e.HTML([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, string(out), script)
}

func TestPassthrough(t *testing.T) {
	var m Minifier = Passthrough{}
	in := []byte("a  b")
	out, err := m.JS(in, JSOptions{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
