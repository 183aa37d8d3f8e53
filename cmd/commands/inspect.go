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
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/assetgen/internal/asset"
	"github.com/phuonguno98/assetgen/internal/compress"
	"github.com/phuonguno98/assetgen/internal/storage"
	"github.com/phuonguno98/assetgen/pkg/carray"
)

// Inspect command specific flags
var extractPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect <header.h>",
	Short: "Decode a generated header and show its content",
	Long: `Decode the byte array of a generated header, check its size constant and
report what it contains.

Examples:
  # Show symbol, sizes and content type
  assetgen inspect src/assets/setup_htm.h

  # Recover the page embedded in the firmware
  assetgen inspect src/assets/setup_htm.h --extract setup.htm`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&extractPath, "extract", "",
		"Write the decoded (and decompressed) payload to this file")
	addOverwriteFlags(inspectCmd)
}

// Inspection is the decoded content of a header.
type Inspection struct {
	Symbol    string
	SizeConst int
	Embedded  int
	Gzip      bool
	Plain     []byte
	MIME      string
	Comments  []string
}

// inspectHeader decodes header text and decompresses gzip payloads.
func inspectHeader(text string) (*Inspection, error) {
	dec, err := carray.Decode(text)
	if err != nil {
		return nil, err
	}

	in := &Inspection{
		Symbol:    dec.Symbol,
		SizeConst: dec.Size,
		Embedded:  len(dec.Data),
		Plain:     dec.Data,
		Comments:  dec.Comments,
	}
	if compress.IsGzip(dec.Data) {
		plain, err := compress.Gunzip(dec.Data)
		if err != nil {
			return nil, err
		}
		in.Gzip = true
		in.Plain = plain
	}
	in.MIME = asset.DetectMIME("", in.Plain)
	return in, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := InitLogger(c.LogLevel, c.LogFile)

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	in, err := inspectHeader(string(text))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	sizeConst := "absent"
	if in.SizeConst >= 0 {
		sizeConst = fmt.Sprintf("%d (matches)", in.SizeConst)
	}
	encoding := "none"
	if in.Gzip {
		encoding = "gzip"
	}

	fmt.Printf("\nHeader:     %s\n", args[0])
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Symbol:     %s\n", in.Symbol)
	fmt.Printf("Size const: %s\n", sizeConst)
	fmt.Printf("Embedded:   %d bytes (%s)\n", in.Embedded, storage.FormatBytes(uint64(in.Embedded)))
	fmt.Printf("Encoding:   %s\n", encoding)
	fmt.Printf("Content:    %d bytes (%s)\n", len(in.Plain), storage.FormatBytes(uint64(len(in.Plain))))
	fmt.Printf("MIME type:  %s\n", in.MIME)
	for _, line := range in.Comments {
		fmt.Printf("Comment:    %s\n", line)
	}
	fmt.Println(strings.Repeat("=", 80))

	if extractPath == "" {
		return nil
	}
	w, err := newFileWriter(c, logger)
	if err != nil {
		return err
	}
	if _, err := w.Write(extractPath, in.Plain); err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	return nil
}
