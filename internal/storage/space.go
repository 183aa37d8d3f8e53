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

// Package storage checks the filesystem that receives generated headers.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// Dependency injection point for testing
var diskUsage = disk.Usage

// InsufficientSpaceError reports that a write would not fit.
type InsufficientSpaceError struct {
	Dir  string
	Need uint64
	Free uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough space in %s: need %s, %s free",
		e.Dir, FormatBytes(e.Need), FormatBytes(e.Free))
}

// Usage describes the filesystem holding a directory.
type Usage struct {
	Path  string
	Total uint64
	Free  uint64
}

// UsageOf returns filesystem usage for dir, walking up to the nearest
// existing ancestor when dir has not been created yet.
func UsageOf(dir string) (*Usage, error) {
	existing := nearestExisting(dir)
	u, err := diskUsage(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage for %s: %w", existing, err)
	}
	return &Usage{Path: u.Path, Total: u.Total, Free: u.Free}, nil
}

// CheckFree verifies that dir's filesystem can take need bytes while keeping
// reserve bytes free. A failure to query usage is not treated as an error:
// some filesystems (network mounts, containers) do not report it.
func CheckFree(dir string, need, reserve uint64) error {
	u, err := UsageOf(dir)
	if err != nil {
		return nil
	}
	if u.Free < need+reserve {
		return &InsufficientSpaceError{Dir: dir, Need: need + reserve, Free: u.Free}
	}
	return nil
}

func nearestExisting(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// FormatBytes converts bytes to human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
