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

package pipeline

import (
	"errors"
	"fmt"

	"github.com/phuonguno98/assetgen/internal/asset"
)

// ErrorKind classifies a bundle failure.
type ErrorKind int

// Failure kinds. Each one aborts the bundle it occurs in.
const (
	// SourceMissing means a declared input file does not exist.
	SourceMissing ErrorKind = iota + 1
	// TransformFailure covers minification, inlining, compression and
	// encoding errors.
	TransformFailure
	// IOFailure covers errors reading or writing files.
	IOFailure
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case SourceMissing:
		return "SourceMissing"
	case TransformFailure:
		return "TransformFailure"
	case IOFailure:
		return "IOFailure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Stage names a step of the bundle pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageLoad     Stage = "load"
	StageMinify   Stage = "minify"
	StageInline   Stage = "inline"
	StageCompress Stage = "compress"
	StageEncode   Stage = "encode"
	StageWrite    Stage = "write"
)

// BundleError is returned for a bundle that could not be produced.
type BundleError struct {
	Bundle string
	Stage  Stage
	Kind   ErrorKind
	Err    error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle %s: %s failed (%s): %v", e.Bundle, e.Stage, e.Kind, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or 0 if err is not a BundleError.
func KindOf(err error) ErrorKind {
	var be *BundleError
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

func loadError(bundle string, err error) *BundleError {
	kind := IOFailure
	if errors.Is(err, asset.ErrSourceMissing) {
		kind = SourceMissing
	}
	return &BundleError{Bundle: bundle, Stage: StageLoad, Kind: kind, Err: err}
}

func transformError(bundle string, stage Stage, err error) *BundleError {
	return &BundleError{Bundle: bundle, Stage: stage, Kind: TransformFailure, Err: err}
}
