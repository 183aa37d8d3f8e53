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

// Package carray renders binary payloads as C byte-array literals and parses
// them back.
//
// A literal defines two constants named from a caller-supplied symbol:
// <symbol>_size holding the byte count and <symbol> holding the bytes. The
// output is a pure function of the input bytes, the base, the symbol and the
// options, so generated headers are stable across builds.
package carray

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Supported numeric bases for byte tokens.
const (
	Base2  = 2
	Base8  = 8
	Base10 = 10
	Base16 = 16
)

// Default rendering values.
const (
	DefaultQualifier   = "PROGMEM"
	DefaultBytesPerRow = 16
	DefaultSizeType    = "uint32_t"
	DefaultElemType    = "uint8_t"
)

var (
	// ErrUnsupportedBase is returned for a base outside 2, 8, 10 and 16.
	ErrUnsupportedBase = errors.New("unsupported numeric base")
	// ErrInvalidSymbol is returned when the symbol is not a valid C identifier.
	ErrInvalidSymbol = errors.New("invalid symbol name")
	// ErrMalformed is returned by Decode when the text is not a byte-array literal.
	ErrMalformed = errors.New("malformed byte-array literal")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a valid C identifier.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Options controls how a literal is rendered.
type Options struct {
	Qualifier   string   // Storage placement qualifier (e.g. PROGMEM); empty = none
	BytesPerRow int      // Tokens per line
	Comments    []string // Lines emitted as // comments before the declarations
}

// DefaultOptions returns the options used by the build pipeline.
func DefaultOptions() Options {
	return Options{
		Qualifier:   DefaultQualifier,
		BytesPerRow: DefaultBytesPerRow,
	}
}

// Literal is a rendered byte-array literal.
type Literal struct {
	Symbol string
	Size   int
	Text   string
}

// SizeSymbol returns the name of the length constant.
func SizeSymbol(symbol string) string {
	return symbol + "_size"
}

// Encode renders data as a byte-array literal named symbol.
func Encode(data []byte, base int, symbol string, opts Options) (*Literal, error) {
	if !IsIdentifier(symbol) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	format, err := tokenFormatter(base)
	if err != nil {
		return nil, err
	}

	perRow := opts.BytesPerRow
	if perRow <= 0 {
		perRow = DefaultBytesPerRow
	}

	var sb strings.Builder
	sb.Grow(len(data)*6 + 256)

	for _, c := range opts.Comments {
		sb.WriteString("// ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "const %s %s = %d;\n", DefaultSizeType, SizeSymbol(symbol), len(data))
	fmt.Fprintf(&sb, "const %s %s[%d]", DefaultElemType, symbol, len(data))
	if opts.Qualifier != "" {
		sb.WriteString(" ")
		sb.WriteString(opts.Qualifier)
	}
	sb.WriteString(" = {\n")

	for i := 0; i < len(data); i += perRow {
		end := i + perRow
		if end > len(data) {
			end = len(data)
		}
		sb.WriteString("  ")
		for j := i; j < end; j++ {
			sb.WriteString(format(data[j]))
			if j < len(data)-1 {
				sb.WriteString(",")
				if j < end-1 {
					sb.WriteString(" ")
				}
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n")

	return &Literal{
		Symbol: symbol,
		Size:   len(data),
		Text:   sb.String(),
	}, nil
}

func tokenFormatter(base int) (func(byte) string, error) {
	switch base {
	case Base16:
		return func(b byte) string { return fmt.Sprintf("0x%02X", b) }, nil
	case Base10:
		return func(b byte) string { return strconv.Itoa(int(b)) }, nil
	case Base8:
		return func(b byte) string {
			if b == 0 {
				return "0"
			}
			return fmt.Sprintf("0%o", b)
		}, nil
	case Base2:
		return func(b byte) string { return fmt.Sprintf("0b%08b", b) }, nil
	default:
		return nil, fmt.Errorf("%w: %d (supported: 2, 8, 10, 16)", ErrUnsupportedBase, base)
	}
}

var (
	sizeDeclRe  = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)_size\s*=\s*(\d+)\s*;`)
	arrayDeclRe = regexp.MustCompile(`(?s)\b([A-Za-z_][A-Za-z0-9_]*)\s*\[\s*(\d*)\s*\][^={;]*=\s*\{([^}]*)\}`)
	commentRe   = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)
)

// Decoded is the result of parsing a byte-array literal.
type Decoded struct {
	Symbol   string
	Size     int // Value of the <symbol>_size constant, or -1 if absent
	Data     []byte
	Comments []string
}

// Decode parses text produced by Encode (or a compatible bin2c tool) and
// returns the embedded bytes. When a size constant is present it must match
// the number of tokens.
func Decode(text string) (*Decoded, error) {
	var comments []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			comments = append(comments, strings.TrimSpace(strings.TrimPrefix(trimmed, "//")))
		}
	}
	stripped := commentRe.ReplaceAllString(text, "")

	m := arrayDeclRe.FindStringSubmatch(stripped)
	if m == nil {
		return nil, fmt.Errorf("%w: no array declaration found", ErrMalformed)
	}
	symbol := m[1]

	data := make([]byte, 0, len(m[3])/5)
	for _, tok := range strings.Split(m[3], ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseUint(tok, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: bad token %q: %v", ErrMalformed, tok, err)
		}
		data = append(data, byte(v))
	}

	if m[2] != "" {
		declared, _ := strconv.Atoi(m[2])
		if declared != len(data) {
			return nil, fmt.Errorf("%w: array length %d but %d tokens", ErrMalformed, declared, len(data))
		}
	}

	size := -1
	for _, sm := range sizeDeclRe.FindAllStringSubmatch(stripped, -1) {
		if sm[1] != symbol {
			continue
		}
		size, _ = strconv.Atoi(sm[2])
		if size != len(data) {
			return nil, fmt.Errorf("%w: %s = %d but %d tokens", ErrMalformed, SizeSymbol(symbol), size, len(data))
		}
		break
	}

	return &Decoded{
		Symbol:   symbol,
		Size:     size,
		Data:     data,
		Comments: comments,
	}, nil
}
