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

package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/phuonguno98/assetgen/internal/compress"
	"github.com/phuonguno98/assetgen/internal/manifest"
	"github.com/phuonguno98/assetgen/internal/pipeline"
	"github.com/phuonguno98/assetgen/pkg/carray"
)

var (
	// Encode command specific flags
	encSymbol    string
	encOutput    string
	encGzip      bool
	encBase      int
	encQualifier string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Encode a single file as a C byte array",
	Long: `Encode any file (typically an image) as a C header without a manifest.

The bytes are embedded as-is unless --gzip is set. The header carries the MIME
type detected from the file content and, for images, an example call
registering it as the device logo.

Examples:
  # logo.png -> logo_png.h with symbol _aclogo_png
  assetgen encode logo.png

  # Gzip-compressed, custom symbol and output
  assetgen encode logo.png --gzip --symbol custom_logo -o src/assets/logo.h`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVar(&encSymbol, "symbol", "",
		"C symbol name (default: _ac<file name>)")
	encodeCmd.Flags().StringVarP(&encOutput, "output", "o", "",
		"Output header (default: <file name>.h in the output directory)")
	encodeCmd.Flags().BoolVar(&encGzip, "gzip", false,
		"Gzip the file before encoding")
	encodeCmd.Flags().IntVar(&encBase, "base", carray.Base16,
		"Numeric base of the byte tokens (2, 8, 10, 16)")
	encodeCmd.Flags().StringVar(&encQualifier, "qualifier", carray.DefaultQualifier,
		"Storage qualifier after the array declaration (empty = none)")
	addOverwriteFlags(encodeCmd)
}

// encodeOptions are the settings of a single-file encode.
type encodeOptions struct {
	Symbol    string // Empty = derived from the file name
	Output    string // Empty = derived from the file name, under OutputDir
	OutputDir string
	Gzip      bool
	Base      int
	Qualifier string
}

// encodedFile is a rendered header ready to be written.
type encodedFile struct {
	Output  string
	Symbol  string
	MIME    string
	Payload *compress.Payload
	Text    string
}

// encodeFile renders the header for the file at path.
func encodeFile(path string, opts encodeOptions) (*encodedFile, error) {
	src, err := asset.Load(path)
	if err != nil {
		return nil, err
	}

	symbol := opts.Symbol
	if symbol == "" {
		symbol = manifest.DefaultSymbol(src.Path)
	}
	output := opts.Output
	if output == "" {
		output = filepath.Join(opts.OutputDir, manifest.DefaultOutput(src.Path))
	}

	mime := src.MIME()
	payload := compress.Store(src.Data)
	if opts.Gzip {
		if payload, err = compress.Gzip(src.Data); err != nil {
			return nil, err
		}
	}

	comments := pipeline.HeaderComments(filepath.Base(src.Path), mime, opts.Gzip, payload)
	if strings.HasPrefix(mime, "image/") {
		comments = append(comments,
			"Usage example:",
			fmt.Sprintf("server.setLogoFromImage(%s, %s, \"%s\");", symbol, carray.SizeSymbol(symbol), mime),
		)
	}

	lit, err := carray.Encode(payload.Data, opts.Base, symbol, carray.Options{
		Qualifier:   opts.Qualifier,
		BytesPerRow: carray.DefaultBytesPerRow,
		Comments:    comments,
	})
	if err != nil {
		return nil, err
	}

	return &encodedFile{
		Output:  output,
		Symbol:  symbol,
		MIME:    mime,
		Payload: payload,
		Text:    lit.Text,
	}, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := InitLogger(c.LogLevel, c.LogFile)

	f, err := encodeFile(args[0], encodeOptions{
		Symbol:    encSymbol,
		Output:    encOutput,
		OutputDir: c.OutputDir,
		Gzip:      encGzip,
		Base:      encBase,
		Qualifier: encQualifier,
	})
	if err != nil {
		return err
	}

	w, err := newFileWriter(c, logger)
	if err != nil {
		return err
	}
	written, err := w.Write(f.Output, []byte(f.Text))
	if err != nil {
		return err
	}
	if !written {
		return nil
	}

	fmt.Printf("Created: %s\n", f.Output)
	fmt.Printf("  Size:  %d bytes (embedded %d)\n", f.Payload.OriginalSize, f.Payload.CompressedSize)
	fmt.Printf("  MIME:  %s\n", f.MIME)
	fmt.Printf("  Array: %s\n", f.Symbol)
	return nil
}
