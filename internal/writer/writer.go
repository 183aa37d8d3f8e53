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

// Package writer persists generated files without silently clobbering
// previous output.
//
// Writes are atomic: content goes to a temporary file in the target
// directory which is renamed over the target once complete, so a failed
// write never leaves a truncated file behind.
package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phuonguno98/assetgen/internal/storage"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer writes files guarded by a ConfirmPolicy.
type Writer struct {
	policy     ConfirmPolicy
	logger     *slog.Logger
	reserve    uint64
	checkSpace func(dir string, need, reserve uint64) error
}

// Option configures a Writer.
type Option func(*Writer)

// WithReserve keeps at least n bytes free on the target filesystem.
func WithReserve(n uint64) Option {
	return func(w *Writer) { w.reserve = n }
}

// WithSpaceCheck replaces the free-space check; nil disables it.
func WithSpaceCheck(fn func(dir string, need, reserve uint64) error) Option {
	return func(w *Writer) { w.checkSpace = fn }
}

// New creates a Writer.
func New(policy ConfirmPolicy, logger *slog.Logger, opts ...Option) *Writer {
	w := &Writer{
		policy:     policy,
		logger:     logger,
		checkSpace: storage.CheckFree,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stores content at path. It returns false without error when the
// file exists and the policy declines the overwrite.
func (w *Writer) Write(path string, content []byte) (bool, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return false, fmt.Errorf("%s is a directory", path)
		}
		ok, err := w.policy.Confirm(path)
		if err != nil {
			return false, fmt.Errorf("overwrite confirmation failed: %w", err)
		}
		if !ok {
			w.logger.Warn("Write cancelled", "path", path)
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if w.checkSpace != nil {
		if err := w.checkSpace(dir, uint64(len(content)), w.reserve); err != nil {
			return false, err
		}
	}

	if err := WriteFileAtomic(path, content); err != nil {
		return false, err
	}

	w.logger.Info("File written", "path", path, "bytes", len(content))
	return true, nil
}

// WriteFileAtomic writes data to path through a temporary file and a rename.
// It does not consult any policy.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
