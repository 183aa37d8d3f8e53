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

package inline

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const setupHTM = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Setup</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <div id="app"></div>
  <script src="app.js"></script>
</body>
</html>
`

func TestInline_ReplacesBothTags(t *testing.T) {
	css := []byte("body{margin:0}")
	js := []byte("var wifiCredentials=[];")

	out, err := Inline([]byte(setupHTM), []Reference{
		{Kind: asset.KindCSS, Ref: "style.css", Content: css},
		{Kind: asset.KindJS, Ref: "app.js", Content: js},
	})
	require.NoError(t, err)

	want := strings.Replace(setupHTM, `<link rel="stylesheet" href="style.css">`, "<style>body{margin:0}</style>", 1)
	want = strings.Replace(want, `<script src="app.js"></script>`, "<script>var wifiCredentials=[];</script>", 1)
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("Inline() mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, string(out), "style.css")
	assert.NotContains(t, string(out), "app.js")
}

func TestInline_TagVariants(t *testing.T) {
	tests := []struct {
		name string
		kind asset.Kind
		ref  string
		tag  string
		want string
	}{
		{"Unquoted attributes", asset.KindCSS, "style.css", `<link href=style.css rel=stylesheet>`, "<style>X</style>"},
		{"Single quotes and extra attrs", asset.KindCSS, "style.css", `<LINK type='text/css' HREF='style.css' rel='stylesheet' />`, "<style>X</style>"},
		{"Leading slash", asset.KindCSS, "style.css", `<link rel="stylesheet" href="/style.css">`, "<style>X</style>"},
		{"Query string", asset.KindCSS, "style.css", `<link rel="stylesheet" href="./style.css?v=3">`, "<style>X</style>"},
		{"Deferred script", asset.KindJS, "app.js", `<script defer src="app.js" ></script>`, "<script>X</script>"},
		{"Unquoted script", asset.KindJS, "app.js", `<script src=app.js></script>`, "<script>X</script>"},
		{"Module script keeps type", asset.KindJS, "app.js", `<script type="module" src="app.js"></script>`, `<script type="module">X</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "<head>" + tt.tag + "</head>"
			out, err := Inline([]byte(doc), []Reference{{Kind: tt.kind, Ref: tt.ref, Content: []byte("X")}})
			require.NoError(t, err)
			assert.Equal(t, "<head>"+tt.want+"</head>", string(out))
		})
	}
}

func TestInline_IgnoresOtherLinks(t *testing.T) {
	doc := `<link rel="icon" href="style.css"><link rel="stylesheet" href="other.css">`
	_, err := Inline([]byte(doc), []Reference{{Kind: asset.KindCSS, Ref: "style.css", Content: []byte("a")}})
	assert.True(t, errors.Is(err, ErrReferenceNotFound), "got %v", err)
}

func TestInline_ContentWithDollarSigns(t *testing.T) {
	js := []byte("var s='$1 $& $$';")
	out, err := Inline([]byte(`<script src="app.js"></script>`), []Reference{{Kind: asset.KindJS, Ref: "app.js", Content: js}})
	require.NoError(t, err)
	assert.Equal(t, "<script>var s='$1 $& $$';</script>", string(out))
}

func TestInline_EscapesClosingTag(t *testing.T) {
	js := []byte(`document.write("</SCRIPT>")`)
	out, err := Inline([]byte(`<script src="app.js"></script>`), []Reference{{Kind: asset.KindJS, Ref: "app.js", Content: js}})
	require.NoError(t, err)
	assert.Equal(t, `<script>document.write("<\/SCRIPT>")</script>`, string(out))
}

func TestInline_UnsupportedKind(t *testing.T) {
	_, err := Inline([]byte(`<img src="logo.svg">`), []Reference{{Kind: asset.KindSVG, Ref: "logo.svg"}})
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	doc := `<html><head>
<link rel="stylesheet" href="pico/css/pico.css">
<link rel="stylesheet" href="style.css">
<link rel="stylesheet" href="https://cdn.example.com/x.css">
<link rel="icon" href="favicon.ico">
</head><body>
<script src="app.js"></script>
<script src="//cdn.example.com/lib.js"></script>
<script>inline()</script>
</body></html>`

	links, err := Discover([]byte(doc))
	require.NoError(t, err)

	want := []Link{
		{Kind: asset.KindCSS, Ref: "pico/css/pico.css"},
		{Kind: asset.KindCSS, Ref: "style.css"},
		{Kind: asset.KindJS, Ref: "app.js"},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSelfContained(t *testing.T) {
	doc := []byte(`<html><body><script src="creds.js"></script><script src="https://x.y/z.js"></script></body></html>`)

	assert.NoError(t, CheckSelfContained(doc, []string{"creds.js"}))
	assert.NoError(t, CheckSelfContained(doc, []string{"/creds.js"}))

	err := CheckSelfContained(doc, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSelfContained))
	assert.Contains(t, err.Error(), "creds.js")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.js"))
	assert.True(t, IsRemote("//example.com/a.js"))
	assert.True(t, IsRemote("data:text/css;base64,AAAA"))
	assert.False(t, IsRemote("app.js"))
	assert.False(t, IsRemote("/static/app.js"))
}

func TestListedAndLocalPath(t *testing.T) {
	external := []string{"creds.js", "/fonts/icons.css"}

	assert.True(t, Listed(external, "./creds.js"))
	assert.True(t, Listed(external, "creds.js?v=3"))
	assert.True(t, Listed(external, "fonts/icons.css"))
	assert.False(t, Listed(external, "app.js"))
	assert.False(t, Listed(nil, "creds.js"))

	assert.Equal(t, "js/app.js", LocalPath("./js/app.js?v=1#top"))
	assert.Equal(t, "style.css", LocalPath("/style.css"))
}
