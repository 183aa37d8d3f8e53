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

// Package compress gzips pipeline payloads at the strongest level available.
//
// Output is deterministic for a given input and library version: the gzip
// header carries no file name and no modification time.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Payload is a compressed buffer together with its size accounting.
type Payload struct {
	Data           []byte
	OriginalSize   int
	CompressedSize int
}

// Ratio returns compressed/original as a percentage.
func (p *Payload) Ratio() float64 {
	if p.OriginalSize == 0 {
		return 0
	}
	return float64(p.CompressedSize) / float64(p.OriginalSize) * 100.0
}

// Gzip compresses data at gzip.BestCompression.
func Gzip(data []byte) (*Payload, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}

	return &Payload{
		Data:           buf.Bytes(),
		OriginalSize:   len(data),
		CompressedSize: buf.Len(),
	}, nil
}

// Store wraps data without compressing it, for bundles with gzip disabled.
func Store(data []byte) *Payload {
	return &Payload{
		Data:           data,
		OriginalSize:   len(data),
		CompressedSize: len(data),
	}
}

// IsGzip reports whether data starts with the gzip magic number.
func IsGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// Gunzip decompresses a gzip stream.
func Gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip failed: %w", err)
	}
	return out, nil
}
